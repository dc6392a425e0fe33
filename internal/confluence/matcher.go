package confluence

import "log/slog"

// similarityThreshold is the minimum text-similarity score a candidate pair
// of nodes must clear to be considered a match.
const similarityThreshold = 0.8

// Matcher pairs nodes between an old and a new tree by structural position
// and text similarity, so comment markers attached to the old tree can be
// relocated onto their counterparts in the new one.
type Matcher struct {
	oldTree *TreeNode
	newTree *TreeNode
	logger  *slog.Logger
}

// NewMatcher creates a Matcher over the given trees.
func NewMatcher(oldTree, newTree *TreeNode, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{oldTree: oldTree, newTree: newTree, logger: logger}
}

// FindMatches returns a map from old node to its best-matching new node,
// keyed and valued by node identity (pointer).
func (m *Matcher) FindMatches() map[*TreeNode]*TreeNode {
	matches := make(map[*TreeNode]*TreeNode)
	m.matchChildren(m.oldTree.Children, m.newTree.Children, matches)
	m.logger.Debug("matched nodes between trees", slog.Int("count", len(matches)))
	return matches
}

func (m *Matcher) matchChildren(oldChildren, newChildren []*TreeNode, matches map[*TreeNode]*TreeNode) {
	matchedNew := make([]bool, len(newChildren))

	for _, oldChild := range oldChildren {
		if oldChild.IsCommentMarker() {
			continue
		}

		bestScore := similarityThreshold
		bestIdx := -1

		for idx, newChild := range newChildren {
			if matchedNew[idx] {
				continue
			}
			score := m.matchScore(oldChild, newChild)
			if score > bestScore {
				bestScore = score
				bestIdx = idx
			}
		}

		if bestIdx >= 0 {
			matchedNew[bestIdx] = true
			m.matchRecursive(oldChild, newChildren[bestIdx], matches)
		}
	}
}

func (m *Matcher) matchRecursive(oldNode, newNode *TreeNode, matches map[*TreeNode]*TreeNode) {
	score := m.matchScore(oldNode, newNode)
	if score < similarityThreshold {
		return
	}
	if score < 1.0 {
		m.logger.Debug("partial match", slog.String("tag", oldNode.Tag), slog.Float64("similarity", score))
	}

	matches[oldNode] = newNode
	m.matchChildren(oldNode.Children, newNode.Children, matches)
}

func (m *Matcher) matchScore(oldNode, newNode *TreeNode) float64 {
	if oldNode.IsCommentMarker() {
		return -1.0
	}
	if oldNode.Tag != newNode.Tag {
		return -1.0
	}
	return textSimilarity(oldNode.TextSignature(), newNode.TextSignature())
}

// textSimilarity scores two strings on [0, 1]. When the shorter string's
// rune length is less than similarityThreshold times the longer one's, that
// length ratio is returned as the score; otherwise the score is
// 2·LCS/(len1+len2), computed over runes so non-ASCII content is compared
// correctly.
func textSimilarity(text1, text2 string) float64 {
	if text1 == "" || text2 == "" {
		return 0.0
	}
	if text1 == text2 {
		return 1.0
	}

	chars1 := []rune(text1)
	chars2 := []rune(text2)
	len1, len2 := len(chars1), len(chars2)

	maxLen, minLen := len1, len2
	if len2 > len1 {
		maxLen, minLen = len2, len1
	}
	if float64(minLen)/float64(maxLen) < similarityThreshold {
		return float64(minLen) / float64(maxLen)
	}

	lcs := lcsLength(chars1, chars2)
	return (2.0 * float64(lcs)) / float64(len1+len2)
}

// lcsLength computes the longest-common-subsequence length between two rune
// slices using a space-optimized two-row dynamic program.
func lcsLength(chars1, chars2 []rune) int {
	len2 := len(chars2)
	prev := make([]int, len2+1)
	curr := make([]int, len2+1)

	for _, c1 := range chars1 {
		for j, c2 := range chars2 {
			if c1 == c2 {
				curr[j+1] = prev[j] + 1
			} else if prev[j+1] > curr[j] {
				curr[j+1] = prev[j+1]
			} else {
				curr[j+1] = curr[j]
			}
		}
		prev, curr = curr, prev
		for i := range curr {
			curr[i] = 0
		}
	}

	return prev[len2]
}
