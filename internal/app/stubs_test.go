package app_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Amund211/ministats/internal/domain"
)

// stubStore is an in-memory implementation of the user, puzzle and solution repositories
type stubStore struct {
	mu sync.Mutex

	users     []domain.User
	puzzles   []domain.Puzzle
	solutions []domain.Solution

	usersErr     error
	puzzlesErr   error
	solutionsErr error
	storeErr     error

	loadCalls int
}

func (s *stubStore) GetUser(ctx context.Context, userID string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadCalls++

	if s.usersErr != nil {
		return domain.User{}, s.usersErr
	}
	for _, user := range s.users {
		if user.UserID == userID {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *stubStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadCalls++

	if s.usersErr != nil {
		return nil, s.usersErr
	}
	return append([]domain.User{}, s.users...), nil
}

func (s *stubStore) StoreUser(ctx context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.storeErr != nil {
		return s.storeErr
	}
	for i := range s.users {
		if s.users[i].UserID == user.UserID {
			s.users[i] = user
			return nil
		}
	}
	s.users = append(s.users, user)
	return nil
}

func (s *stubStore) GetPuzzle(ctx context.Context, puzzleID int) (domain.Puzzle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadCalls++

	if s.puzzlesErr != nil {
		return domain.Puzzle{}, s.puzzlesErr
	}
	for _, puzzle := range s.puzzles {
		if puzzle.PuzzleID == puzzleID {
			return puzzle, nil
		}
	}
	return domain.Puzzle{}, domain.ErrPuzzleNotFound
}

func (s *stubStore) GetPuzzles(ctx context.Context, publishType string, dateRange domain.DateRange) ([]domain.Puzzle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadCalls++

	if s.puzzlesErr != nil {
		return nil, s.puzzlesErr
	}
	puzzles := []domain.Puzzle{}
	for _, puzzle := range s.puzzles {
		if puzzle.PublishType == publishType && dateRange.Contains(puzzle.PrintDate) {
			puzzles = append(puzzles, puzzle)
		}
	}
	return puzzles, nil
}

func (s *stubStore) StorePuzzles(ctx context.Context, puzzles []domain.Puzzle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.storeErr != nil {
		return s.storeErr
	}
	s.puzzles = append(s.puzzles, puzzles...)
	return nil
}

func (s *stubStore) GetSolutionsForUser(ctx context.Context, userID string) ([]domain.Solution, error) {
	return s.filterSolutions(func(solution domain.Solution) bool {
		return solution.UserID == userID
	})
}

func (s *stubStore) GetSolutionsForPuzzle(ctx context.Context, puzzleID int) ([]domain.Solution, error) {
	return s.filterSolutions(func(solution domain.Solution) bool {
		return solution.PuzzleID == puzzleID
	})
}

func (s *stubStore) GetAllSolutions(ctx context.Context) ([]domain.Solution, error) {
	return s.filterSolutions(func(solution domain.Solution) bool {
		return true
	})
}

func (s *stubStore) filterSolutions(keep func(domain.Solution) bool) ([]domain.Solution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadCalls++

	if s.solutionsErr != nil {
		return nil, s.solutionsErr
	}
	solutions := []domain.Solution{}
	for _, solution := range s.solutions {
		if keep(solution) {
			solutions = append(solutions, solution)
		}
	}
	return solutions, nil
}

func (s *stubStore) StoreSolutions(ctx context.Context, solutions []domain.Solution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.storeErr != nil {
		return s.storeErr
	}
	s.solutions = append(s.solutions, solutions...)
	return nil
}

func (s *stubStore) getLoadCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadCalls
}

type stubProvider struct {
	mu sync.Mutex

	puzzles    []domain.Puzzle
	puzzlesErr error

	// Keyed by token
	solutions      map[string][]domain.Solution
	solutionErrors map[string]error

	solutionCalls int
}

func (p *stubProvider) GetPuzzles(ctx context.Context, publishType string, start, end time.Time) ([]domain.Puzzle, error) {
	if p.puzzlesErr != nil {
		return nil, p.puzzlesErr
	}
	return p.puzzles, nil
}

func (p *stubProvider) GetSolution(ctx context.Context, token string, userID string, puzzleID int) (domain.Solution, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.solutionCalls++

	if err, ok := p.solutionErrors[token]; ok {
		return domain.Solution{}, err
	}
	for _, solution := range p.solutions[token] {
		if solution.PuzzleID == puzzleID {
			return solution, nil
		}
	}
	return domain.Solution{}, fmt.Errorf("no solution for puzzle %d", puzzleID)
}
