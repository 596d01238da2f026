package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/joshuapare/marksweep/heap/inspect"
	"github.com/joshuapare/marksweep/pkg/marksweep"
)

var (
	errUnknownOp    = errors.New("unknown op")
	errUsage        = errors.New("wrong number of arguments")
	errUnknownName  = errors.New("unknown allocation")
	errDuplicate    = errors.New("name already bound")
	errExpectFailed = errors.New("expectation failed")
)

// interp executes heap scripts. Each line is one op; blank lines and text
// after '#' are ignored. Names bind to allocations and follow them across
// compaction; a name whose allocation is freed or swept is unbound.
type interp struct {
	ms    *marksweep.MarkSweep
	names map[string]*marksweep.Allocation
	out   io.Writer
	json  bool
}

func newInterp(ms *marksweep.MarkSweep, out io.Writer) *interp {
	return &interp{
		ms:    ms,
		names: make(map[string]*marksweep.Allocation),
		out:   out,
	}
}

// runScript executes every line of r, stopping at the first failing op.
func (in *interp) runScript(r io.Reader) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if err := in.exec(fields[0], fields[1:]); err != nil {
			return fmt.Errorf("line %d: %s: %w", lineNo, fields[0], err)
		}
	}
	return sc.Err()
}

func (in *interp) exec(op string, args []string) error {
	switch op {
	case "alloc":
		return in.opAlloc(args)
	case "word":
		return in.opWord(args)
	case "ptr":
		return in.opPtr(args)
	case "clear":
		return in.opClear(args)
	case "free":
		return in.opFree(args)
	case "gc":
		return in.opGC(args)
	case "stats":
		return in.opStats(args)
	case "verify":
		return in.opVerify(args)
	case "expect":
		return in.opExpect(args)
	case "inspect":
		return in.opInspect(args)
	default:
		return errUnknownOp
	}
}

func wantArgs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: expected %d, got %d", errUsage, n, len(args))
	}
	return nil
}

func (in *interp) lookup(name string) (*marksweep.Allocation, error) {
	a, ok := in.names[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownName, name)
	}
	return a, nil
}

// slot resolves NAME INDEX to a heap offset inside the allocation.
func (in *interp) slot(name, index string) (int, error) {
	a, err := in.lookup(name)
	if err != nil {
		return 0, err
	}
	i, err := strconv.Atoi(index)
	if err != nil {
		return 0, fmt.Errorf("bad index %q: %w", index, err)
	}
	if i < 0 || i >= a.Length {
		return 0, fmt.Errorf("index %d outside %s %v", i, name, a)
	}
	return a.Start + i, nil
}

func (in *interp) opAlloc(args []string) error {
	if err := wantArgs(args, 2); err != nil {
		return err
	}
	name := args[0]
	if _, ok := in.names[name]; ok {
		return fmt.Errorf("%w: %q", errDuplicate, name)
	}
	size, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad size %q: %w", args[1], err)
	}
	a, err := in.ms.Allocate(size)
	if err != nil {
		return err
	}
	in.names[name] = a
	printVerbose("alloc %s %v\n", name, a)
	return nil
}

func (in *interp) opWord(args []string) error {
	if err := wantArgs(args, 3); err != nil {
		return err
	}
	off, err := in.slot(args[0], args[1])
	if err != nil {
		return err
	}
	v, err := strconv.ParseUint(args[2], 0, 32)
	if err != nil {
		return fmt.Errorf("bad value %q: %w", args[2], err)
	}
	return in.ms.SetWord(off, uint32(v))
}

func (in *interp) opPtr(args []string) error {
	if err := wantArgs(args, 3); err != nil {
		return err
	}
	off, err := in.slot(args[0], args[1])
	if err != nil {
		return err
	}
	target, err := in.lookup(args[2])
	if err != nil {
		return err
	}
	return in.ms.SetPtr(off, target.Start)
}

func (in *interp) opClear(args []string) error {
	if err := wantArgs(args, 2); err != nil {
		return err
	}
	off, err := in.slot(args[0], args[1])
	if err != nil {
		return err
	}
	return in.ms.SetWord(off, 0)
}

func (in *interp) opFree(args []string) error {
	if err := wantArgs(args, 1); err != nil {
		return err
	}
	a, err := in.lookup(args[0])
	if err != nil {
		return err
	}
	if err := in.ms.Free(a); err != nil {
		return err
	}
	delete(in.names, args[0])
	return nil
}

func (in *interp) roots(names []string) ([]*marksweep.Allocation, error) {
	roots := make([]*marksweep.Allocation, 0, len(names))
	for _, name := range names {
		a, err := in.lookup(name)
		if err != nil {
			return nil, err
		}
		roots = append(roots, a)
	}
	return roots, nil
}

func (in *interp) opGC(args []string) error {
	roots, err := in.roots(args)
	if err != nil {
		return err
	}
	cycle, err := in.ms.GC(roots...)
	if err != nil {
		return err
	}
	for name, a := range in.names {
		if !in.ms.IsLive(a) {
			printVerbose("swept %s\n", name)
			delete(in.names, name)
		}
	}
	if in.json {
		return printJSON(in.out, cycle)
	}
	writeCycle(in.out, cycle)
	return nil
}

func (in *interp) opStats(args []string) error {
	if err := wantArgs(args, 0); err != nil {
		return err
	}
	if in.json {
		return printJSON(in.out, in.ms.Stats())
	}
	writeStats(in.out, in.ms.Stats())
	return nil
}

func (in *interp) opVerify(args []string) error {
	if err := wantArgs(args, 0); err != nil {
		return err
	}
	if err := in.ms.Verify(); err != nil {
		return err
	}
	printVerbose("verify: ok\n")
	return nil
}

func (in *interp) opExpect(args []string) error {
	if err := wantArgs(args, 2); err != nil {
		return err
	}
	want, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad count %q: %w", args[1], err)
	}
	var got int
	switch args[0] {
	case "usage":
		got = in.ms.HeapUsage()
	case "size":
		got = in.ms.HeapSize()
	case "count":
		got = in.ms.NumAllocations()
	default:
		return fmt.Errorf("%w: expect %q", errUnknownOp, args[0])
	}
	if got != want {
		return fmt.Errorf("%w: %s is %d, want %d", errExpectFailed, args[0], got, want)
	}
	return nil
}

// inspectReport is the JSON form of the inspect op.
type inspectReport struct {
	Garbage  []string       `json:"garbage"`
	Retained map[string]int `json:"retained"`
}

func (in *interp) opInspect(args []string) error {
	roots, err := in.roots(args)
	if err != nil {
		return err
	}
	g, err := in.ms.Inspect(roots...)
	if err != nil {
		return err
	}

	nameOf := make(map[*marksweep.Allocation]string, len(in.names))
	for name, a := range in.names {
		nameOf[a] = name
	}
	label := func(a *marksweep.Allocation) string {
		if name, ok := nameOf[a]; ok {
			return name
		}
		return a.String()
	}

	report := inspectReport{Garbage: []string{}, Retained: make(map[string]int)}
	for _, a := range g.Garbage() {
		report.Garbage = append(report.Garbage, label(a))
	}
	retained := g.RetainedWords()
	idom := g.Dominators()
	for i, words := range retained {
		if idom[i] == inspect.Unreachable {
			continue
		}
		report.Retained[label(g.Node(i).Alloc)] = words
	}

	if in.json {
		return printJSON(in.out, report)
	}
	printer.Fprintf(in.out, "garbage: %s\n", strings.Join(report.Garbage, " "))
	keys := make([]string, 0, len(report.Retained))
	for k := range report.Retained {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		printer.Fprintf(in.out, "retained %s: %d words\n", k, report.Retained[k])
	}
	return nil
}
