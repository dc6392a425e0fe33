package confluence

import "log/slog"

// PreserveResult is the outcome of preserving inline comment markers across
// a markdown re-render of a Confluence page.
type PreserveResult struct {
	HTML              string
	UnmatchedComments []UnmatchedComment
}

// PreserveComments transfers inline comment markers from oldHTML onto the
// structurally matching parts of newHTML.
//
// It parses both fragments to trees, matches nodes by tag and text
// similarity (an 80% threshold), transfers markers from matched old nodes
// onto their new counterparts, and falls back to a global text search for
// markers whose parent didn't match anything. If either fragment fails to
// parse, newHTML is returned unchanged.
func PreserveComments(oldHTML, newHTML string, logger *slog.Logger) PreserveResult {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("starting comment preservation")
	logger.Debug("comment preservation input sizes", slog.Int("old_len", len(oldHTML)), slog.Int("new_len", len(newHTML)))

	result, err := tryPreserveComments(oldHTML, newHTML, logger)
	if err != nil {
		logger.Error("comment preservation failed, falling back to unpreserved html", slog.Any("err", err))
		return PreserveResult{HTML: newHTML}
	}

	logger.Info("comment preservation completed")
	return result
}

func tryPreserveComments(oldHTML, newHTML string, logger *slog.Logger) (PreserveResult, error) {
	parser := NewParser()
	serializer := NewSerializer()

	oldTree, err := parser.Parse(oldHTML)
	if err != nil {
		return PreserveResult{}, err
	}
	newTree, err := parser.Parse(newHTML)
	if err != nil {
		return PreserveResult{}, err
	}

	matcher := NewMatcher(oldTree, newTree, logger)
	matches := matcher.FindMatches()
	logger.Info("found matching nodes", slog.Int("count", len(matches)))

	transfer := NewTransfer(logger)
	transfer.Run(matches, newTree, oldTree)

	html := serializer.Serialize(newTree)
	return PreserveResult{HTML: html, UnmatchedComments: transfer.UnmatchedComments()}, nil
}
