package fit

// Line is the model slope*x + intercept.
type Line struct{}

func (Line) Name() string {
	return ModelLine
}

func (Line) ParamNames() []string {
	return []string{"slope", "intercept"}
}

func (Line) Eval(x float64, params []float64) float64 {
	return params[0]*x + params[1]
}

// Solve computes the ordinary least squares slope and intercept.
func (Line) Solve(x, y []float64) ([]float64, error) {
	n := len(x)
	if n < 2 {
		return nil, ErrTooFewPoints
	}

	var meanX, meanY float64
	for i := range n {
		meanX += x[i]
		meanY += y[i]
	}

	meanX /= float64(n)
	meanY /= float64(n)

	var sxx, sxy float64
	for i := range n {
		dx := x[i] - meanX
		sxx += dx * dx
		sxy += dx * (y[i] - meanY)
	}

	if sxx == 0 {
		return nil, ErrSingular
	}

	slope := sxy / sxx

	return []float64{slope, meanY - slope*meanX}, nil
}
