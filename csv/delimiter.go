package csv

import (
	"bufio"
	"io"

	"hermannm.dev/wrap"
)

var DefaultDelimitersToCheck = []rune{',', ';', '\t', ' ', '|'}

// DeduceFieldDelimiter picks the delimiter that occurs the most consistently across the first
// rows of the file. Delimiters inside quoted fields are not counted.
func DeduceFieldDelimiter(
	csvFile io.ReadSeeker,
	maxRowsToCheck int,
	delimitersToCheck []rune,
) (delimiter rune, err error) {
	// Resets reader position in file before returning, so its data can be read subsequently
	defer func() {
		if _, seekErr := csvFile.Seek(0, io.SeekStart); seekErr != nil && err == nil {
			err = wrap.Error(seekErr, "failed to reset CSV reader after deducing field delimiter")
		}
	}()

	if len(delimitersToCheck) == 0 {
		delimitersToCheck = DefaultDelimitersToCheck
	}

	candidates := newDelimiterCandidateList(delimitersToCheck)

	scanner := bufio.NewScanner(csvFile)
	for i := 0; i < maxRowsToCheck && scanner.Scan(); i++ {
		line := scanner.Text()

		for i := range candidates {
			candidates[i].updateCounts(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, wrap.Error(err, "failed to read CSV file")
	}

	return candidates.getBestCandidate(), nil
}

type delimiterCandidate struct {
	delimiter    rune
	highestCount int
	lowestCount  int
}

func (candidate *delimiterCandidate) updateCounts(line string) {
	count := 0
	inQuotes := false
	for _, char := range line {
		switch {
		case char == '"':
			inQuotes = !inQuotes
		case char == candidate.delimiter && !inQuotes:
			count++
		}
	}

	if candidate.highestCount == -1 || candidate.highestCount < count {
		candidate.highestCount = count
	}
	if candidate.lowestCount == -1 || candidate.lowestCount > count {
		candidate.lowestCount = count
	}
}

// consistent is true if the delimiter occurred the same number of times on every line.
func (candidate delimiterCandidate) consistent() bool {
	return candidate.highestCount == candidate.lowestCount
}

type delimiterCandidateList []delimiterCandidate

func newDelimiterCandidateList(delimitersToCheck []rune) delimiterCandidateList {
	list := make([]delimiterCandidate, 0, len(delimitersToCheck))

	for _, delimiter := range delimitersToCheck {
		list = append(
			list,
			delimiterCandidate{delimiter: delimiter, highestCount: -1, lowestCount: -1},
		)
	}

	return list
}

// getBestCandidate prefers delimiters that occur consistently on every line, then the ones that
// occur the most. Falls back to the first candidate if none of them occur at all.
func (list delimiterCandidateList) getBestCandidate() rune {
	if len(list) == 0 {
		return ','
	}

	best := list[0]
	for _, candidate := range list[1:] {
		if candidate.highestCount <= 0 {
			continue
		}

		switch {
		case best.highestCount <= 0:
			best = candidate
		case candidate.consistent() && !best.consistent():
			best = candidate
		case candidate.consistent() == best.consistent() &&
			candidate.highestCount > best.highestCount &&
			(candidate.lowestCount != 0 || best.lowestCount == 0):
			best = candidate
		}
	}

	return best.delimiter
}
