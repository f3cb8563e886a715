package bingo

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
)

// Generator produces randomized bingo cards. It is pure over its entropy
// source; two generated cards are not required to differ from each other.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator() *Generator {
	return &Generator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededGenerator is for deterministic card streams (robot players, tests).
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate builds a card for the given mode. 75-ball cards are 5x5 with a
// free center cell; 90-ball cards are 3x9 with four empty cells per row.
func (g *Generator) Generate(mode, title string) (*models.BingoCard, error) {
	var numbers [][]*int
	switch mode {
	case models.Mode75:
		numbers = g.generate75()
	case models.Mode90:
		numbers = g.generate90()
	default:
		return nil, fmt.Errorf("unknown game mode %q", mode)
	}

	card := &models.BingoCard{
		ID:            uuid.New().String(),
		Numbers:       numbers,
		Marked:        freshMarks(numbers),
		Title:         title,
		GameMode:      mode,
		PaymentStatus: models.CardReady,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	return card, nil
}

// generate75 draws 5 unique numbers per B/I/N/G/O column band (1-15, 16-30,
// ...), builds columns first and transposes to row-major, then blanks the
// center cell.
func (g *Generator) generate75() [][]*int {
	cols := make([][]int, 5)
	for c := 0; c < 5; c++ {
		low := c*15 + 1
		perm := g.rng.Perm(15)
		cols[c] = make([]int, 5)
		for r := 0; r < 5; r++ {
			cols[c][r] = low + perm[r]
		}
	}

	rows := make([][]*int, 5)
	for r := 0; r < 5; r++ {
		rows[r] = make([]*int, 5)
		for c := 0; c < 5; c++ {
			n := cols[c][r]
			rows[r][c] = &n
		}
	}
	rows[2][2] = nil // free cell
	return rows
}

// generate90 draws 3 ascending numbers per column band (1-9, 10-19, ...,
// 80-90) and keeps exactly 5 populated columns per row.
func (g *Generator) generate90() [][]*int {
	bands := make([][]int, 9)
	for c := 0; c < 9; c++ {
		low, size := band90(c)
		perm := g.rng.Perm(size)
		nums := []int{low + perm[0], low + perm[1], low + perm[2]}
		sort.Ints(nums)
		bands[c] = nums
	}

	rows := make([][]*int, 3)
	for r := 0; r < 3; r++ {
		rows[r] = make([]*int, 9)
		for _, c := range g.rng.Perm(9)[:5] {
			n := bands[c][r]
			rows[r][c] = &n
		}
	}
	return rows
}

// band90 returns the low bound and width of a 90-ball column band. The
// first band holds 1-9 and the last 80-90 so the bands cover 1-90 exactly.
func band90(col int) (low, size int) {
	switch col {
	case 0:
		return 1, 9
	case 8:
		return 80, 11
	default:
		return col * 10, 10
	}
}

// freshMarks returns an all-false marked matrix with free cells pre-marked.
func freshMarks(numbers [][]*int) [][]bool {
	marked := make([][]bool, len(numbers))
	for r := range numbers {
		marked[r] = make([]bool, len(numbers[r]))
		for c := range numbers[r] {
			if numbers[r][c] == nil {
				marked[r][c] = true
			}
		}
	}
	return marked
}

// Validate checks a card matrix submitted by a client: correct shape for
// the mode, every number unique and inside its column band. Purchased
// cards are persisted only if they pass.
func Validate(numbers [][]*int, mode string) error {
	switch mode {
	case models.Mode75:
		return validate75(numbers)
	case models.Mode90:
		return validate90(numbers)
	default:
		return fmt.Errorf("unknown game mode %q", mode)
	}
}

func validate75(numbers [][]*int) error {
	if len(numbers) != 5 {
		return fmt.Errorf("expected 5 rows, got %d", len(numbers))
	}
	seen := map[int]bool{}
	for r := 0; r < 5; r++ {
		if len(numbers[r]) != 5 {
			return fmt.Errorf("row %d: expected 5 cells, got %d", r, len(numbers[r]))
		}
		for c := 0; c < 5; c++ {
			cell := numbers[r][c]
			if cell == nil {
				if r == 2 && c == 2 {
					continue
				}
				return fmt.Errorf("row %d col %d: only the center cell may be free", r, c)
			}
			low := c*15 + 1
			if *cell < low || *cell > low+14 {
				return fmt.Errorf("row %d col %d: %d outside band %d-%d", r, c, *cell, low, low+14)
			}
			if seen[*cell] {
				return fmt.Errorf("duplicate number %d", *cell)
			}
			seen[*cell] = true
		}
	}
	if numbers[2][2] != nil {
		return fmt.Errorf("center cell must be free")
	}
	return nil
}

func validate90(numbers [][]*int) error {
	if len(numbers) != 3 {
		return fmt.Errorf("expected 3 rows, got %d", len(numbers))
	}
	seen := map[int]bool{}
	for r := 0; r < 3; r++ {
		if len(numbers[r]) != 9 {
			return fmt.Errorf("row %d: expected 9 cells, got %d", r, len(numbers[r]))
		}
		populated := 0
		for c := 0; c < 9; c++ {
			cell := numbers[r][c]
			if cell == nil {
				continue
			}
			populated++
			low, size := band90(c)
			if *cell < low || *cell > low+size-1 {
				return fmt.Errorf("row %d col %d: %d outside band %d-%d", r, c, *cell, low, low+size-1)
			}
			if seen[*cell] {
				return fmt.Errorf("duplicate number %d", *cell)
			}
			seen[*cell] = true
		}
		if populated != 5 {
			return fmt.Errorf("row %d: expected 5 populated cells, got %d", r, populated)
		}
	}
	return nil
}
