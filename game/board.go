package game

import "errors"

// Ошибки движка доски
var (
	ErrInvalidBoard = errors.New("board must have exactly 9 cells")
	ErrIllegalMove  = errors.New("cell index out of range")
	ErrCellOccupied = errors.New("cell already occupied")
)

// Mark представляет символ в клетке доски
type Mark uint8

const (
	Empty Mark = iota
	X
	O
)

// String возвращает символ для отображения
func (m Mark) String() string {
	switch m {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return "."
	}
}

// Other возвращает противоположный символ
func (m Mark) Other() Mark {
	switch m {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// Board представляет доску 3x3, клетки индексируются 0..8 построчно
type Board [9]Mark

// Result представляет исход оценки доски
type Result uint8

const (
	ResultNone Result = iota // игра продолжается
	ResultX                  // выиграл X
	ResultO                  // выиграл O
	ResultDraw               // ничья, доска заполнена
)

// Winner возвращает победивший символ, если он есть
func (r Result) Winner() (Mark, bool) {
	switch r {
	case ResultX:
		return X, true
	case ResultO:
		return O, true
	default:
		return Empty, false
	}
}

// lines перечисляет 8 выигрышных линий: 3 строки, 3 столбца, 2 диагонали
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Evaluate оценивает доску: победа, ничья или игра продолжается.
// Чистая функция без побочных эффектов.
func Evaluate(b Board) Result {
	for _, ln := range lines {
		m := b[ln[0]]
		if m != Empty && m == b[ln[1]] && m == b[ln[2]] {
			if m == X {
				return ResultX
			}
			return ResultO
		}
	}
	for _, c := range b {
		if c == Empty {
			return ResultNone
		}
	}
	return ResultDraw
}

// Apply возвращает новую доску с ходом mark в клетке cell.
// Исходная доска не изменяется (значение копируется).
func Apply(b Board, cell int, mark Mark) (Board, error) {
	if cell < 0 || cell > 8 {
		return b, ErrIllegalMove
	}
	if b[cell] != Empty {
		return b, ErrCellOccupied
	}
	b[cell] = mark
	return b, nil
}

// FromCells собирает доску из среза клеток произвольного источника
// (хранилище, транспорт). Срез не длины 9 считается повреждённым.
func FromCells(cells []Mark) (Board, error) {
	var b Board
	if len(cells) != 9 {
		return b, ErrInvalidBoard
	}
	copy(b[:], cells)
	return b, nil
}
