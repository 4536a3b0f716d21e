package ocr

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	reDateish  = regexp.MustCompile(`\d{2,4}\s*[./년-]\s*\d{1,2}`)
	reClockish = regexp.MustCompile(`\d{1,2}:\d{2}`)
	reAddrish  = regexp.MustCompile(`(?i)\d+\s*(?:번길|로|길)|\d+\s+\w+\s+(?:st|ave|rd|blvd)\b|[시구군동]\s`)
)

// heuristicConfidence scores decoded text by the signals triage looks for.
func heuristicConfidence(txt string) float32 {
	score := float32(0.2)
	if reDateish.MatchString(txt) {
		score += 0.15
	}
	if reClockish.MatchString(txt) {
		score += 0.15
	}
	if reAddrish.MatchString(txt) {
		score += 0.1
	}
	if letterRatio(txt) > 0.5 {
		score += 0.2
	}
	if len([]rune(txt)) > 80 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// letterRatio is the share of non-space runes that are letters or digits.
func letterRatio(txt string) float32 {
	var total, good int
	for _, r := range txt {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			good++
		}
	}
	if total == 0 {
		return 0
	}
	return float32(good) / float32(total)
}

// meanTSVConfidence averages the word conf column of tesseract TSV output, scaled to 0..1.
func meanTSVConfidence(tsv string) float32 {
	var sum, n float64
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || ln == "" {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		c := cols[len(cols)-2]
		if c == "" || c == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(c, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float32(sum / n / 100.0)
}

func blend(ocr, heur float32) float32 {
	conf := heur
	if ocr > 0 {
		conf = 0.7*ocr + 0.3*heur
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}
