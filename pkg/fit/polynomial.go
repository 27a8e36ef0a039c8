package fit

import (
	"fmt"
	"math"
	"slices"
)

// Polynomial is the model c0 + c1*x + ... + cN*x^N, where N is the degree.
type Polynomial struct {
	Degree int
}

func (p Polynomial) Name() string {
	return fmt.Sprintf("poly%d", p.Degree)
}

func (p Polynomial) ParamNames() []string {
	names := make([]string, p.Degree+1)
	for i := range names {
		names[i] = fmt.Sprintf("c%d", i)
	}

	return names
}

// Eval evaluates the polynomial with Horner's method.
func (p Polynomial) Eval(x float64, params []float64) float64 {
	var v float64
	for i := len(params) - 1; i >= 0; i-- {
		v = v*x + params[i]
	}

	return v
}

// Solve fits the polynomial by solving the normal equations in
// u = (x - mid) / half, which maps the range of x onto [-1, 1]. The returned
// coefficients are for powers of x.
func (p Polynomial) Solve(x, y []float64) ([]float64, error) {
	if p.Degree < 0 {
		return nil, fmt.Errorf("invalid degree %d", p.Degree)
	}

	size := p.Degree + 1
	if len(x) < size {
		return nil, ErrTooFewPoints
	}

	lo, hi := slices.Min(x), slices.Max(x)

	mid, half := (lo+hi)/2, (hi-lo)/2
	if half == 0 {
		half = 1
	}

	// Power sums of u, up to 2*degree.
	sums := make([]float64, 2*p.Degree+1)
	rhs := make([]float64, size)

	for i, xv := range x {
		u := (xv - mid) / half
		pow := 1.0
		for k := range sums {
			sums[k] += pow
			if k < size {
				rhs[k] += pow * y[i]
			}

			pow *= u
		}
	}

	a := make([][]float64, size)
	for i := range a {
		a[i] = make([]float64, size)
		for j := range a[i] {
			a[i][j] = sums[i+j]
		}
	}

	coef, err := solveLinear(a, rhs)
	if err != nil {
		return nil, err
	}

	return unshift(coef, mid, half), nil
}

// unshift converts the coefficients of a polynomial in u = (x - mid) / half
// into coefficients of x, expanding each (x - mid)^k binomially.
func unshift(coef []float64, mid, half float64) []float64 {
	out := make([]float64, len(coef))

	for k, ck := range coef {
		ck /= math.Pow(half, float64(k))

		// binom is C(k, j), pow is (-mid)^(k-j).
		binom, pow := 1.0, 1.0
		for j := k; j >= 0; j-- {
			out[j] += ck * binom * pow
			binom = binom * float64(j) / float64(k-j+1)
			pow *= -mid
		}
	}

	return out
}

// singularTolerance is the smallest pivot accepted, relative to the largest
// entry of the matrix.
const singularTolerance = 1e-10

// solveLinear solves a*x = b by Gaussian elimination with partial pivoting.
// a and b are modified in place.
func solveLinear(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)

	var norm float64
	for i := range a {
		for _, v := range a[i] {
			norm = max(norm, math.Abs(v))
		}
	}

	if norm == 0 {
		return nil, ErrSingular
	}

	for col := range n {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}

		if math.Abs(a[pivot][col]) <= singularTolerance*norm {
			return nil, ErrSingular
		}

		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			f := a[row][col] / a[col][col]
			if f == 0 {
				continue
			}

			for k := col; k < n; k++ {
				a[row][k] -= f * a[col][k]
			}

			b[row] -= f * b[col]
		}
	}

	out := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		v := b[row]
		for k := row + 1; k < n; k++ {
			v -= a[row][k] * out[k]
		}

		out[row] = v / a[row][row]
	}

	return out, nil
}
