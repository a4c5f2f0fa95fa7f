package article

import "strings"

// Chunk groups the non-empty lines of text into chunks of roughly
// targetTokens, seeding each chunk with up to overlapTokens from the tail of
// the previous one. Lines longer than targetTokens are split into sentences,
// and sentences that are still too long into fixed rune windows.
func Chunk(text string, targetTokens, overlapTokens int) []string {
	if targetTokens <= 0 {
		targetTokens = 1
	}

	var (
		out    []string
		buf    []string
		tokSum int
	)

	flush := func() {
		if tokSum == 0 {
			return
		}
		out = append(out, strings.Join(buf, "\n"))

		if overlapTokens <= 0 {
			buf = buf[:0]
			tokSum = 0
			return
		}
		// Keep a tail of roughly overlapTokens, never the whole buffer.
		var keep []string
		remain := overlapTokens
		for j := len(buf) - 1; j >= 1; j-- {
			t := ApproxTokens(buf[j])
			if t > remain {
				break
			}
			keep = append([]string{buf[j]}, keep...)
			remain -= t
		}
		buf = keep
		tokSum = 0
		for _, s := range buf {
			tokSum += ApproxTokens(s)
		}
	}

	fresh := 0
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		for _, piece := range splitLong(line, targetTokens) {
			pt := ApproxTokens(piece)
			if fresh > 0 && tokSum+pt > targetTokens {
				flush()
				fresh = 0
			}
			buf = append(buf, piece)
			tokSum += pt
			fresh++
			if tokSum >= targetTokens {
				flush()
				fresh = 0
			}
		}
	}
	if fresh > 0 {
		flush()
	}
	return out
}

// splitLong breaks line into pieces of at most targetTokens, preferring
// sentence boundaries.
func splitLong(line string, targetTokens int) []string {
	if ApproxTokens(line) <= targetTokens {
		return []string{line}
	}

	var (
		out []string
		cur strings.Builder
	)
	emit := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for _, sentence := range sentences(line) {
		if ApproxTokens(sentence) > targetTokens {
			emit()
			out = append(out, runeWindows(sentence, targetTokens*4)...)
			continue
		}
		if cur.Len() > 0 && ApproxTokens(cur.String()+" "+sentence) > targetTokens {
			emit()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(sentence)
	}
	emit()
	return out
}

// sentences splits after '.', '!' or '?' when followed by whitespace.
func sentences(s string) []string {
	var out []string
	runes := []rune(s)
	start := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && runes[i+1] != ' ' && runes[i+1] != '\t' {
			continue
		}
		if part := strings.TrimSpace(string(runes[start : i+1])); part != "" {
			out = append(out, part)
		}
		start = i + 1
	}
	if part := strings.TrimSpace(string(runes[start:])); part != "" {
		out = append(out, part)
	}
	return out
}

func runeWindows(s string, size int) []string {
	runes := []rune(s)
	out := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		if part := strings.TrimSpace(string(runes[start:end])); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ApproxTokens estimates tokens as one per four characters.
func ApproxTokens(s string) int {
	n := len([]rune(s))
	if n <= 0 {
		return 0
	}
	return (n + 3) / 4
}
