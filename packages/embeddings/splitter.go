package embeddings

import "strings"

// Separator preference order: paragraph, line, word, then raw characters.
var separators = []string{"\n\n", "\n", " ", ""}

// Split breaks text into chunks of at most chunkSize characters, preferring
// to cut on paragraph and line boundaries, with chunkOverlap characters of
// context carried between adjacent chunks.
func Split(text string, chunkSize, chunkOverlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 1600
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 8
	}
	return recursiveSplit(text, chunkSize, chunkOverlap, separators)
}

func recursiveSplit(text string, size, overlap int, seps []string) []string {
	if len(text) <= size {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	sep, remaining := pickSeparator(text, seps)
	if sep == "" {
		return hardSplit(text, size, overlap)
	}

	pieces := strings.Split(text, sep)
	var chunks []string
	var cur []string
	curLen := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		joined := strings.Join(cur, sep)
		if strings.TrimSpace(joined) != "" {
			chunks = append(chunks, joined)
		}
	}

	for _, p := range pieces {
		if p == "" {
			continue
		}
		if len(p) > size {
			flush()
			cur, curLen = nil, 0
			chunks = append(chunks, recursiveSplit(p, size, overlap, remaining)...)
			continue
		}
		if curLen+len(p)+len(sep) > size && len(cur) > 0 {
			flush()
			// Carry a tail of the finished chunk into the next one.
			var tail []string
			tailLen := 0
			for i := len(cur) - 1; i >= 0; i-- {
				if tailLen+len(cur[i]) > overlap {
					break
				}
				tail = append([]string{cur[i]}, tail...)
				tailLen += len(cur[i]) + len(sep)
			}
			cur, curLen = tail, tailLen
		}
		cur = append(cur, p)
		curLen += len(p) + len(sep)
	}
	flush()

	return chunks
}

func pickSeparator(text string, seps []string) (string, []string) {
	for i, s := range seps {
		if s == "" {
			return "", nil
		}
		if strings.Contains(text, s) {
			return s, seps[i+1:]
		}
	}
	return "", nil
}

func hardSplit(text string, size, overlap int) []string {
	step := size - overlap
	if step <= 0 {
		step = size
	}
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}
