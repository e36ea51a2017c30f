package transcribe

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// AudioTranscriber exports audioTranscriber for mocks.
type AudioTranscriber = audioTranscriber

// NewTestOpenAIRecognizer creates an OpenAIRecognizer with a mock client.
func NewTestOpenAIRecognizer(client audioTranscriber, opts ...OpenAIOption) *OpenAIRecognizer {
	return newOpenAIRecognizer(client, opts...)
}

// Function exports for unit testing internal logic.
var (
	ClassifyOpenAIError = classifyOpenAIError
	ParseGoogleResponse = parseGoogleResponse
)
