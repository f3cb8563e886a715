package bingo

// Supported win patterns. An unknown selector falls back to PatternLine.
const (
	PatternLine        = "line"
	PatternFullHouse   = "full-house"
	PatternBlackout    = "blackout"
	PatternFourCorners = "four-corners"
	PatternX           = "x-pattern"
)

// CheckWin decides win/no-win over a marked matrix. Free (nil) cells always
// count as marked, but a line or corner set wins only if it contains at
// least one numbered cell, so the sparse 3x9 layout cannot produce a win
// from empty cells alone. The matrix is trusted as given; cross-checking
// marks against the authoritative called list is claim validation's job,
// not ours.
func CheckWin(numbers [][]*int, marked [][]bool, pattern string) bool {
	if len(numbers) == 0 || len(marked) != len(numbers) {
		return false
	}

	switch pattern {
	case PatternFullHouse, PatternBlackout:
		return allMarked(numbers, marked)
	case PatternFourCorners:
		return fourCorners(numbers, marked)
	case PatternX:
		return xPattern(numbers, marked)
	default:
		return anyLine(numbers, marked)
	}
}

// Reconstruct derives a marked matrix from a card's numbers and a flat list
// of numbers: a cell is marked iff it is free or its number is in the list.
// This is the server-trusted view used for adjudication and verification.
func Reconstruct(numbers [][]*int, markedNumbers []int) [][]bool {
	set := make(map[int]bool, len(markedNumbers))
	for _, n := range markedNumbers {
		set[n] = true
	}
	marked := make([][]bool, len(numbers))
	for r := range numbers {
		marked[r] = make([]bool, len(numbers[r]))
		for c := range numbers[r] {
			marked[r][c] = numbers[r][c] == nil || set[*numbers[r][c]]
		}
	}
	return marked
}

func cellMarked(numbers [][]*int, marked [][]bool, r, c int) bool {
	return numbers[r][c] == nil || marked[r][c]
}

func anyLine(numbers [][]*int, marked [][]bool) bool {
	rows := len(numbers)
	cols := len(numbers[0])

	for r := 0; r < rows; r++ {
		cells := make([][2]int, 0, cols)
		for c := 0; c < cols; c++ {
			cells = append(cells, [2]int{r, c})
		}
		if lineWins(numbers, marked, cells) {
			return true
		}
	}

	for c := 0; c < cols; c++ {
		cells := make([][2]int, 0, rows)
		for r := 0; r < rows; r++ {
			cells = append(cells, [2]int{r, c})
		}
		if lineWins(numbers, marked, cells) {
			return true
		}
	}

	// diagonals only exist on the square 5x5 card
	if rows == 5 && cols == 5 {
		main := make([][2]int, 0, 5)
		anti := make([][2]int, 0, 5)
		for i := 0; i < 5; i++ {
			main = append(main, [2]int{i, i})
			anti = append(anti, [2]int{i, 4 - i})
		}
		if lineWins(numbers, marked, main) || lineWins(numbers, marked, anti) {
			return true
		}
	}

	return false
}

// lineWins reports whether every numbered cell on the line is marked and the
// line holds at least one number. A line of only free or empty cells never
// wins.
func lineWins(numbers [][]*int, marked [][]bool, cells [][2]int) bool {
	numbered := false
	for _, rc := range cells {
		r, c := rc[0], rc[1]
		if numbers[r][c] == nil {
			continue
		}
		numbered = true
		if !marked[r][c] {
			return false
		}
	}
	return numbered
}

func allMarked(numbers [][]*int, marked [][]bool) bool {
	for r := range numbers {
		for c := range numbers[r] {
			if !cellMarked(numbers, marked, r, c) {
				return false
			}
		}
	}
	return true
}

func fourCorners(numbers [][]*int, marked [][]bool) bool {
	rows := len(numbers)
	cols := len(numbers[0])
	corners := [][2]int{{0, 0}, {0, cols - 1}, {rows - 1, 0}, {rows - 1, cols - 1}}

	numbered := false
	for _, rc := range corners {
		r, c := rc[0], rc[1]
		if numbers[r][c] == nil {
			continue
		}
		numbered = true
		if !marked[r][c] {
			return false
		}
	}
	return numbered
}

func xPattern(numbers [][]*int, marked [][]bool) bool {
	if len(numbers) != 5 || len(numbers[0]) != 5 {
		return false
	}
	for i := 0; i < 5; i++ {
		if !cellMarked(numbers, marked, i, i) || !cellMarked(numbers, marked, i, 4-i) {
			return false
		}
	}
	return true
}
