// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package quizgen turns study notes into five-question multiple-choice quizzes.

# Generator

Generator is what handlers use:

	gen := quizgen.NewGenerator(client) // client may be nil
	questions, usedFallback := gen.Generate(ctx, notes)

The result is always exactly 5 questions with 4 choices each and a valid
0-based answer index. Remote results are normalized to that shape by
truncation or placeholder padding.

# Remote Client

Client sends a chat-completion request (fixed instruction template + notes)
and strictly validates the decoded response: question text present, exactly
4 choices, answer index in range. Any shape mismatch is an error - the
upstream is never trusted structurally. Markdown code fences around the
JSON are tolerated and stripped.

# Fallback

Fallback sentence-splits the notes into placeholder questions. An upstream
failure therefore never surfaces to the end user as a hard error; the
Generator logs it and degrades.
*/
package quizgen
