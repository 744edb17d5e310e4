// Copyright 2025 Poiesic Systems
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


package llm

// repairJSON fixes formatting mistakes models commonly make in JSON answers:
// keys missing their quotes and trailing commas before a closing
// bracket. Text inside string literals is never touched.
func repairJSON(s string) string {
	return removeTrailingCommas(quoteBareKeys(s))
}

// quoteBareKeys quotes keys written as `key":` or `key:`.
// Example: `{text": "a"}` becomes `{"text": "a"}`.
func quoteBareKeys(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+16)

	inString := false
	for i := 0; i < len(in); i++ {
		ch := in[i]
		out = append(out, ch)

		if inString {
			if ch == '\\' && i+1 < len(in) {
				i++
				out = append(out, in[i])
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			continue
		}
		if ch != '{' && ch != ',' {
			continue
		}

		// Copy whitespace after the delimiter
		j := i + 1
		for j < len(in) && isSpace(in[j]) {
			out = append(out, in[j])
			j++
		}

		// A bare key is letters/underscores followed directly by `":`
		k := j
		for k < len(in) && (isLetter(in[k]) || in[k] == '_') {
			k++
		}
		if k > j && k+1 < len(in) && in[k] == '"' && in[k+1] == ':' {
			out = append(out, '"')
			out = append(out, in[j:k+1]...)
			i = k
			continue
		}
		if k > j && k < len(in) && in[k] == ':' {
			out = append(out, '"')
			out = append(out, in[j:k]...)
			out = append(out, '"')
			i = k - 1
			continue
		}
		i = j - 1
	}
	return string(out)
}

// removeTrailingCommas drops commas directly followed (ignoring whitespace)
// by a closing brace or bracket.
func removeTrailingCommas(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in))

	inString := false
	for i := 0; i < len(in); i++ {
		ch := in[i]
		if inString {
			out = append(out, ch)
			if ch == '\\' && i+1 < len(in) {
				i++
				out = append(out, in[i])
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
		}
		if ch == ',' {
			j := i + 1
			for j < len(in) && isSpace(in[j]) {
				j++
			}
			if j < len(in) && (in[j] == '}' || in[j] == ']') {
				continue
			}
		}
		out = append(out, ch)
	}
	return string(out)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
