// Copyright 2025 AUTHORS
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build !windows

package winreg

import (
	"context"
	"fmt"
)

// RealPort is unavailable off Windows: there is no Lxss registry hive
// to read. Production builds of wslctl only ever run on Windows;
// this exists so the package (and anything that imports it) still
// compiles for development and `go vet` on Linux/macOS.
type RealPort struct{}

func NewRealPort() *RealPort { return &RealPort{} }

var errUnsupported = fmt.Errorf("winreg: the Windows registry is not available on this platform")

func (p *RealPort) Enumerate(context.Context) ([]DistroKey, error)      { return nil, errUnsupported }
func (p *RealPort) Get(context.Context, string) (DistroKey, error)      { return DistroKey{}, errUnsupported }
func (p *RealPort) SetDistributionName(context.Context, string, string) error { return errUnsupported }
func (p *RealPort) SetShortcutPath(context.Context, string, string) error     { return errUnsupported }
