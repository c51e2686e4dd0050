package cas

import (
	"fmt"
	"strings"
)

// ============================================================
// Matrix — symbolic matrix
// ============================================================

type Matrix struct {
	rows, cols int
	data       [][]Expr
}

func NewMatrix(rows, cols int) *Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("cas: negative matrix shape %dx%d", rows, cols))
	}
	data := make([][]Expr, rows)
	for i := range data {
		data[i] = make([]Expr, cols)
		for j := range data[i] {
			data[i][j] = N(0)
		}
	}
	return &Matrix{rows: rows, cols: cols, data: data}
}

// MatrixFromSlice fills a rows x cols matrix in row-major order.
func MatrixFromSlice(rows, cols int, entries []Expr) *Matrix {
	if len(entries) != rows*cols {
		panic(fmt.Sprintf("cas: MatrixFromSlice needs %d entries, got %d", rows*cols, len(entries)))
	}
	m := NewMatrix(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.data[i][j] = entries[i*cols+j]
		}
	}
	return m
}

// MatrixFromRows builds a matrix from equally long rows.
func MatrixFromRows(rows ...[]Expr) *Matrix {
	if len(rows) == 0 {
		return NewMatrix(0, 0)
	}
	cols := len(rows[0])
	entries := make([]Expr, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			panic(fmt.Sprintf("cas: MatrixFromRows row %d has %d entries, want %d", i, len(r), cols))
		}
		entries = append(entries, r...)
	}
	return MatrixFromSlice(len(rows), cols, entries)
}

func Identity(n int) *Matrix {
	m := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		m.data[i][i] = N(1)
	}
	return m
}

func (m *Matrix) checkBounds(row, col int) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("cas: matrix index out of range [%d,%d] for %dx%d", row, col, m.rows, m.cols))
	}
}

func (m *Matrix) Get(row, col int) Expr {
	m.checkBounds(row, col)
	return m.data[row][col]
}
func (m *Matrix) Set(row, col int, val Expr) {
	m.checkBounds(row, col)
	m.data[row][col] = val
}
func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

// IsSquare reports whether the matrix has as many rows as columns.
func (m *Matrix) IsSquare() bool { return m.rows == m.cols }

// Flatten returns the entries in row-major order.
func (m *Matrix) Flatten() []Expr {
	out := make([]Expr, 0, m.rows*m.cols)
	for _, row := range m.data {
		out = append(out, row...)
	}
	return out
}

func (m *Matrix) Clone() *Matrix {
	return MatrixFromSlice(m.rows, m.cols, m.Flatten())
}

// Map returns a new matrix with fn applied to every entry.
func (m *Matrix) Map(fn func(Expr) Expr) *Matrix {
	result := NewMatrix(m.rows, m.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			result.data[i][j] = fn(m.data[i][j])
		}
	}
	return result
}

// ApplySubs substitutes repl for old in every entry and simplifies.
func (m *Matrix) ApplySubs(old, repl Expr) *Matrix {
	return m.Map(func(e Expr) Expr { return Simplify(e.Subs(old, repl)) })
}

func (m *Matrix) Equal(other *Matrix) bool {
	if other == nil || m.rows != other.rows || m.cols != other.cols {
		return false
	}
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			if !m.data[i][j].Equal(other.data[i][j]) {
				return false
			}
		}
	}
	return true
}

// StringRows renders each entry, row by row.
func (m *Matrix) StringRows() [][]string {
	out := make([][]string, m.rows)
	for i, row := range m.data {
		out[i] = make([]string, len(row))
		for j, e := range row {
			out[i][j] = e.String()
		}
	}
	return out
}

func (m *Matrix) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("[")
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(m.data[i][j].String())
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}
