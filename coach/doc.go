// Package coach is the public surface of the ReddyFit inference client:
// one typed operation per capability (workout-plan generation, meal and
// nutrition analysis, form-video analysis, grounded Q&A, image editing,
// audio transcription, streaming chat), each composing request building,
// retry-wrapped transport calls and typed response extraction.
//
// Critical-path operations propagate classified failures; best-effort
// operations (quick replies, exercise-video lookup) suppress them into a
// sentinel so the UI stays responsive.
package coach
