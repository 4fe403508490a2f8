// Package testutil provides test doubles and fixtures shared by the
// converter, CLI and engine tests.
//
// MockTranscriber implements api.Transcriber with per-file canned responses
// and errors. MockTranscriptionDAO is an in-memory repository.TranscriptionDAO.
// MockExtractor implements audio.Extractor without ffmpeg, writing
// placeholder WAV files large enough to pass audio validation.
//
// Fixtures create video files of a given size under t.TempDir().
//
//	func TestConvert(t *testing.T) {
//	    video := testutil.CreateVideoFile(t, t.TempDir(), "talk.mp4", 4096)
//	    tr := testutil.NewMockTranscriber().WithResponse("audio.wav", "hello")
//	    ...
//	}
package testutil
