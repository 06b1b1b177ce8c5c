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

package appexec

import "strings"

// ShellEscape wraps s in single quotes, escaping any embedded single
// quote with the standard POSIX '\'' sandwich. Shared by every caller
// that substitutes a value into a guest shell command.
func ShellEscape(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// BuildTerminalCommand wraps a guest command the way a terminal window
// launch does: chained with && (not ;, which Windows Terminal treats
// as its own argv tab-separator), followed by a trailer that keeps the
// window open for the user to read the result in either outcome.
func BuildTerminalCommand(guestCmd string) string {
	return guestCmd +
		" && echo Done. Press Enter to close... && read" +
		" || (echo Command failed. Press Enter to close... && read)"
}
