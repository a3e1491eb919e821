// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// opset_inspect lists the operations of an opset version, describes one operation, or builds a small demo
// graph with a graph engine.
//
// Examples:
//
//	opset_inspect -opset=opset3
//	opset_inspect -opset=opset1 -op=LSTMCell
//	opset_inspect -op=Convolution,GroupConvolution -json
//	opset_inspect -demo -engine=memgraph
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	_ "github.com/gomlx/opset/backends/default"
	"github.com/gomlx/opset/pkg/opset"
	"github.com/gomlx/opset/pkg/support/xslices"
	"github.com/janpfeifer/must"
	"github.com/muesli/termenv"
	"k8s.io/klog/v2"
)

var (
	flagOpset = flag.String("opset", "", "Opset version to inspect, e.g. \"opset3\" or \"3\". "+
		"Empty for the latest version.")
	flagOps = xslices.Flag("op", nil, "Comma-separated list of operations to describe. "+
		"Empty for all operations.", func(name string) (string, error) { return name, nil })
	flagJSON   = flag.Bool("json", false, "Output the description as JSON.")
	flagPlain  = flag.Bool("plain", false, "Disable colors in the output.")
	flagDemo   = flag.Bool("demo", false, "Build a small demo graph with the selected opset, and list its nodes.")
	flagEngine = flag.String("engine", "", "Graph engine configuration used by -demo, "+
		"formatted as \"<engine_name>:<engine_configuration>\". Empty for the default engine.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if flag.NArg() > 0 {
		klog.Errorf("Unexpected arguments %q. See 'opset_inspect -help'.", flag.Args())
		os.Exit(1)
	}
	if *flagPlain {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	if err := run(); err != nil {
		klog.Errorf("Failed: %+v", err)
		os.Exit(1)
	}
}

func run() error {
	version, err := opset.ParseVersion(*flagOpset)
	if err != nil {
		return err
	}
	view, err := opset.Default().Resolve(version)
	if err != nil {
		return err
	}
	klog.V(1).Infof("inspecting %s with %d operations", view.Version(), view.Len())

	if *flagDemo {
		return demo(*flagEngine, view.Version())
	}

	specs := make([]*opset.OpSpec, 0, view.Len())
	if len(*flagOps) > 0 {
		for _, name := range *flagOps {
			spec, err := view.Lookup(name)
			if err != nil {
				return err
			}
			specs = append(specs, spec)
		}
	} else {
		for _, name := range view.Names() {
			specs = append(specs, must.M1(view.Lookup(name)))
		}
	}

	if *flagJSON {
		blob, err := describeJSON(view.Version(), specs)
		if err != nil {
			return err
		}
		fmt.Println(string(blob))
		return nil
	}
	if len(specs) == 1 {
		fmt.Println(titleStyle.Render(fmt.Sprintf("%s in %s", specs[0].Name(), view.Version())))
		fmt.Println(attributesTable(specs[0]).Render())
		return nil
	}
	fmt.Println(titleStyle.Render(fmt.Sprintf("%s: %d operations", view.Version(), len(specs))))
	fmt.Println(operationsTable(specs).Render())
	return nil
}
