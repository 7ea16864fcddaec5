package domaintest

import (
	"time"

	"github.com/Amund211/ministats/internal/domain"
)

// Date returns midnight UTC of the given date string (YYYY-MM-DD). Panics on bad input.
func Date(date string) time.Time {
	t, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return t
}

type puzzleBuilder struct {
	puzzle domain.Puzzle
}

func (pb *puzzleBuilder) WithPublishType(publishType string) *puzzleBuilder {
	pb.puzzle.PublishType = publishType
	return pb
}

func (pb *puzzleBuilder) WithTitle(title string) *puzzleBuilder {
	pb.puzzle.Title = title
	return pb
}

func (pb *puzzleBuilder) Build() domain.Puzzle {
	return pb.puzzle
}

func NewPuzzleBuilder(puzzleID int, printDate string) *puzzleBuilder {
	return &puzzleBuilder{
		puzzle: domain.Puzzle{
			PuzzleID:    puzzleID,
			PrintDate:   Date(printDate),
			PublishType: domain.PublishTypeMini,
			Author:      "Joel Fagliano",
			Editor:      "Will Shortz",
			Title:       "",
			FormatType:  "Normal",
		},
	}
}
