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


// Package llm implements the ai interfaces with langchaingo chat models.
//
// Two backends are supported:
//
//   - googleai: the Gemini API, which accepts image, video and audio parts
//   - openai: any OpenAI-compatible server (Ollama, LocalAI, vLLM); most of
//     these only understand images
//
// Every request sends the binary payload together with a task prompt in JSON
// mode. Answers are stripped of markdown fences, repaired for common
// formatting mistakes and decoded; undecodable answers are retried up to
// Config.MaxAttempts times.
//
// # Usage
//
//	config := ai.NewConfig(ai.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
//	provider, err := llm.NewProvider(ctx, config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	transcript, err := provider.Transcriber().Transcribe(ctx, chunk, "audio/mpeg")
package llm
