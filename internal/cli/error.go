package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/spf13/pflag"
)

// Messages of the usage errors that are returned untyped.
var usageErrorPrefixes = []string{
	"unknown flag",
	"unknown shorthand flag",
	"flag needs an argument",
	"invalid argument",
	"unknown command",
	"accepts at most",
	"accepts between",
	"requires at least",
}

// ErrorHandler prints err under fang's error header. Flag and argument
// mistakes get a pointer to --help.
func ErrorHandler(w io.Writer, styles fang.Styles, err error) {
	var sb strings.Builder

	sb.WriteString(styles.ErrorHeader.String() + "\n")
	sb.WriteString(lipgloss.NewStyle().MarginLeft(2).Render(err.Error()) + "\n\n")

	if isUsageError(err) {
		hint := styles.ErrorText.UnsetWidth().UnsetMargins().UnsetTransform()
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Left,
			styles.ErrorText.UnsetWidth().Render("Try"),
			styles.Program.Flag.Render("--help"),
			hint.PaddingLeft(1).Render("for usage."),
		) + "\n\n")
	}

	_, werr := io.WriteString(w, sb.String())
	if werr != nil {
		panic(fmt.Errorf("write error: %w", werr))
	}
}

func isUsageError(err error) bool {
	var (
		notExist   *pflag.NotExistError
		needsValue *pflag.ValueRequiredError
		badValue   *pflag.InvalidValueError
		badSyntax  *pflag.InvalidSyntaxError
	)

	if errors.As(err, &notExist) || errors.As(err, &needsValue) ||
		errors.As(err, &badValue) || errors.As(err, &badSyntax) {
		return true
	}

	msg := err.Error()
	for _, prefix := range usageErrorPrefixes {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}

	return false
}
