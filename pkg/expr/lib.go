package expr

import (
	"encoding/csv"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/ast"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/cel-go/ext"
)

type lib struct{}

func (lib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		ext.Math(),
		ext.Strings(),
		ext.Lists(),

		cel.Constant("fs.CREATE", types.IntType, types.Int(fsnotify.Create)),
		cel.Constant("fs.REMOVE", types.IntType, types.Int(fsnotify.Remove)),
		cel.Constant("fs.WRITE", types.IntType, types.Int(fsnotify.Write)),
		cel.Constant("fs.RENAME", types.IntType, types.Int(fsnotify.Rename)),
		cel.Constant("fs.CHMOD", types.IntType, types.Int(fsnotify.Chmod)),

		// `has` macro and function for checking if an event has specific flags.
		// Example: op.has(fs.WRITE).
		// Example: op.has(fs.CREATE, fs.WRITE).
		cel.Macros(
			cel.ReceiverVarArgMacro("has", hasVarArgMacro),
		),
		cel.Function("@has",
			cel.Overload("@has_int_int", []*cel.Type{cel.IntType, cel.IntType}, cel.BoolType,
				cel.BinaryBinding(func(event, flag ref.Val) ref.Val {
					eventOp, errVal := toOp(event)
					if errVal != nil {
						return errVal
					}

					flagOp, errVal := toOp(flag)
					if errVal != nil {
						return errVal
					}

					return types.Bool(eventOp.Has(flagOp))
				}),
			),
			cel.Overload("@has_int_list_int", []*cel.Type{cel.IntType, cel.ListType(cel.IntType)}, cel.BoolType,
				cel.BinaryBinding(func(event, flags ref.Val) ref.Val {
					eventOp, errVal := toOp(event)
					if errVal != nil {
						return errVal
					}

					flagsList, ok := flags.(traits.Lister)
					if !ok {
						return types.NewErr("has: invalid flags list")
					}

					flagSize, ok := flagsList.Size().(types.Int)
					if !ok {
						return types.NewErr("has: invalid flags list size")
					}

					// True if the event has any of the flags.
					for i := range flagSize {
						flagOp, errVal := toOp(flagsList.Get(i))
						if errVal != nil {
							return errVal
						}
						if eventOp.Has(flagOp) {
							return types.True
						}
					}

					return types.False
				}),
			),
		),

		// `pathBase` returns the last element of the path.
		// Example: pathBase(file).startsWith("test_").
		cel.Function("pathBase",
			cel.Overload("path_base", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(stringFunc("pathBase", filepath.Base)),
			),
		),

		// `pathDir` returns all but the last element of the path.
		// Example: pathDir(file).endsWith("/data").
		cel.Function("pathDir",
			cel.Overload("path_dir", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(stringFunc("pathDir", filepath.Dir)),
			),
		),

		// `pathExt` returns the file extension of the path.
		// Example: pathExt(file) in [".csv", ".txt"].
		cel.Function("pathExt",
			cel.Overload("path_ext", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(stringFunc("pathExt", filepath.Ext)),
			),
		),

		// `csvColumns` reads the header row of a CSV file.
		// Returns an empty list if the file can't be read.
		// Example: ["x", "y"].all(c, c in csvColumns(file)).
		cel.Function("csvColumns",
			cel.Overload("csv_columns", []*cel.Type{cel.StringType}, cel.ListType(cel.StringType),
				cel.UnaryBinding(func(path ref.Val) ref.Val {
					pathValue, ok := path.(types.String).Value().(string)
					if !ok {
						return types.NewErr("csvColumns: invalid string value")
					}

					return types.NewStringList(types.DefaultTypeAdapter, readCSVHeader(pathValue))
				}),
			),
		),
	}
}

func (lib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}

func stringFunc(name string, fn func(string) string) func(ref.Val) ref.Val {
	return func(v ref.Val) ref.Val {
		s, ok := v.(types.String).Value().(string)
		if !ok {
			return types.NewErr("%s: invalid string value", name)
		}

		return types.String(fn(s))
	}
}

//nolint:ireturn // Following CEL's function signature.
func toOp(v ref.Val) (fsnotify.Op, ref.Val) {
	i, ok := v.Value().(int64)
	if !ok {
		return 0, types.NewErr("has: invalid value %v", v)
	}
	if i < 0 || i > math.MaxUint32 {
		return 0, types.NewErr("has: value out of range")
	}

	return fsnotify.Op(i), nil //nolint:gosec // G115: range checked above.
}

func readCSVHeader(path string) []string {
	logger := slog.With(slog.String("file", path))

	f, err := os.Open(path) //nolint:gosec // G304: Reading user-provided trace files.
	if err != nil {
		logger.Debug("failed to open CSV file, returning no columns", slog.Any("error", err))

		return []string{}
	}
	defer f.Close() //nolint:errcheck // Read only.

	header, err := csv.NewReader(f).Read()
	if err != nil {
		logger.Debug("failed to read CSV header, returning no columns", slog.Any("error", err))

		return []string{}
	}

	out := make([]string, 0, len(header))
	for _, col := range header {
		out = append(out, strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
	}

	return out
}

//nolint:ireturn // Following CEL's function signature.
func hasVarArgMacro(meh cel.MacroExprFactory, target ast.Expr, args []ast.Expr) (ast.Expr, *cel.Error) {
	switch len(args) {
	case 0:
		return nil, meh.NewError(target.ID(), "has() requires at least one argument")
	case 1:
		return meh.NewCall("@has", target, args[0]), nil
	default:
		return meh.NewCall("@has", target, meh.NewList(args...)), nil
	}
}
