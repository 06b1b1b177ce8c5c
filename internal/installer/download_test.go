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

package installer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/metadata"
	"github.com/octasoft/wslctl/internal/ports/appexec"
	"github.com/octasoft/wslctl/internal/ports/cliexec"
	"github.com/octasoft/wslctl/internal/ports/winreg"
	"github.com/octasoft/wslctl/internal/wsltypes"
)

type fakeDoer struct {
	resp *http.Response
	err  error
}

func (f *fakeDoer) Do(*http.Request) (*http.Response, error) {
	return f.resp, f.err
}

func newBodyResponse(body []byte, contentLength int64) *http.Response {
	return &http.Response{
		StatusCode:    http.StatusOK,
		Status:        "200 OK",
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: contentLength,
	}
}

func TestDownloadAndImport_Success(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 1024)
	sum := sha256.Sum256(payload)

	cli := cliexec.NewMockPort()
	cli.FallbackResult = cliexec.Result{ExitCode: 0}

	reg := winreg.NewMockPort()
	reg.Seed(winreg.DistroKey{ID: "{guid-dl}", DistributionName: "Alpine"})

	meta := metadata.New(filepath.Join(t.TempDir(), "meta.json"))
	s := New(cli, appexec.NewMockPort(), reg, meta)

	entry := CatalogEntry{ID: "alpine", Name: "Alpine", URL: "https://example.test/alpine.tar", SHA256: hex.EncodeToString(sum[:])}
	doer := &fakeDoer{resp: newBodyResponse(payload, int64(len(payload)))}

	d, err := s.DownloadAndImport(context.Background(), doer, DefaultDownloadLimits(), entry, "Alpine", t.TempDir(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ID != "{guid-dl}" || d.Name != "Alpine" {
		t.Errorf("unexpected distribution: %+v", d)
	}
	row, ok := meta.Get("{guid-dl}")
	if !ok || row.InstallSource != wsltypes.SourceDownload || row.DownloadURL != entry.URL {
		t.Errorf("expected Download provenance row, got %+v (ok=%v)", row, ok)
	}
}

func TestDownloadAndImport_ChecksumMismatch(t *testing.T) {
	payload := []byte("not what you expect")
	s := New(cliexec.NewMockPort(), appexec.NewMockPort(), winreg.NewMockPort(), nil)

	entry := CatalogEntry{ID: "x", Name: "x", URL: "https://example.test/x.tar", SHA256: "deadbeef"}
	doer := &fakeDoer{resp: newBodyResponse(payload, int64(len(payload)))}

	_, err := s.DownloadAndImport(context.Background(), doer, DefaultDownloadLimits(), entry, "X", t.TempDir(), 2)
	if !apperr.Is(err, apperr.KindDownload) {
		t.Fatalf("expected KindDownload, got %v", err)
	}
}

func TestDownloadAndImport_ContentLengthTooLarge(t *testing.T) {
	s := New(cliexec.NewMockPort(), appexec.NewMockPort(), winreg.NewMockPort(), nil)
	entry := CatalogEntry{ID: "x", Name: "x", URL: "https://example.test/x.tar"}
	doer := &fakeDoer{resp: newBodyResponse([]byte("irrelevant"), 999999999999)}

	limits := DefaultDownloadLimits()
	limits.MaxSize = 10

	_, err := s.DownloadAndImport(context.Background(), doer, limits, entry, "X", t.TempDir(), 2)
	if !apperr.Is(err, apperr.KindDownload) {
		t.Fatalf("expected KindDownload, got %v", err)
	}
}

func TestReadChunkWithProgressTimeout_Stall(t *testing.T) {
	s := &Service{}
	pr, pw := io.Pipe()
	defer pw.Close()
	defer pr.Close()

	buf := make([]byte, 16)
	_, err := s.readChunkWithProgressTimeout(pr, buf, 10*time.Millisecond)
	if err == nil {
		t.Fatal("expected a stall timeout error")
	}
}
