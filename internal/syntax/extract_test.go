package syntax

import (
	"slices"
	"testing"

	"svlang/internal/source"
)

func scanTree(t *testing.T, src string) *Tree {
	t.Helper()
	m := source.NewManager()
	id := m.AddVirtual("test.sv", []byte(src))
	return FromBuffer(m, id, nil)
}

func refNames(refs []NameRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Name)
	}
	return out
}

func TestExtractTopLevelDecls(t *testing.T) {
	tree := scanTree(t, `
module top;
endmodule

interface simple_bus;
endinterface

package my_pkg;
endpackage

class txn;
endclass
`)
	if got := refNames(tree.Meta.TopLevelDecls); !slices.Equal(got, []string{"top", "simple_bus", "my_pkg"}) {
		t.Fatalf("top-level decls = %v", got)
	}
	if got := refNames(tree.Meta.ClassDecls); !slices.Equal(got, []string{"txn"}) {
		t.Fatalf("class decls = %v", got)
	}
}

func TestExtractNestedDeclsNotTopLevel(t *testing.T) {
	tree := scanTree(t, `
package p;
  class inner;
  endclass
endpackage
`)
	if got := refNames(tree.Meta.TopLevelDecls); !slices.Equal(got, []string{"p"}) {
		t.Fatalf("top-level decls = %v", got)
	}
	if len(tree.Meta.ClassDecls) != 0 {
		t.Fatalf("nested class reported as top-level: %v", refNames(tree.Meta.ClassDecls))
	}
}

func TestExtractInstantiations(t *testing.T) {
	tree := scanTree(t, `
module top;
  logic clk;
  alu u_alu (.clk(clk));
  fifo #(.DEPTH(16)) u_fifo (.clk(clk));
  assign clk = 1'b0;
endmodule
`)
	if got := refNames(tree.Meta.Instantiations); !slices.Equal(got, []string{"alu", "fifo"}) {
		t.Fatalf("instantiations = %v", got)
	}
}

func TestExtractVariableDeclNotInstantiation(t *testing.T) {
	tree := scanTree(t, `
module top;
  my_type_t value;
  int count;
endmodule
`)
	if len(tree.Meta.Instantiations) != 0 {
		t.Fatalf("false instantiations: %v", refNames(tree.Meta.Instantiations))
	}
}

func TestExtractPackageImports(t *testing.T) {
	tree := scanTree(t, `
import uvm_pkg::*;
module top;
  import helpers_pkg::clog2, math_pkg::*;
endmodule
`)
	if got := refNames(tree.Meta.PackageImports); !slices.Equal(got, []string{"uvm_pkg", "helpers_pkg", "math_pkg"}) {
		t.Fatalf("imports = %v", got)
	}
}

func TestExtractInterfacePorts(t *testing.T) {
	tree := scanTree(t, `
module consumer (simple_bus sb, input logic clk, mem_if.slave mem);
endmodule
`)
	if got := refNames(tree.Meta.InterfacePorts); !slices.Equal(got, []string{"simple_bus", "mem_if"}) {
		t.Fatalf("interface ports = %v", got)
	}
}

func TestExtractScopedRefs(t *testing.T) {
	tree := scanTree(t, `
module top;
  initial begin
    cfg_pkg::config_t c;
  end
endmodule
`)
	if got := refNames(tree.Meta.ScopedRefs); !slices.Contains(got, "cfg_pkg") {
		t.Fatalf("scoped refs = %v", got)
	}
}

func TestExtractMacros(t *testing.T) {
	tree := scanTree(t, "`define WIDTH 8\n`define NAME(x) x``_inst\nmodule m; endmodule\n")
	names := make([]string, 0, len(tree.Macros))
	for _, mac := range tree.Macros {
		names = append(names, mac.Name)
	}
	if !slices.Equal(names, []string{"WIDTH", "NAME"}) {
		t.Fatalf("macros = %v", names)
	}
}

func TestInheritedMacrosNotRedefined(t *testing.T) {
	m := source.NewManager()
	id := m.AddVirtual("lib.sv", []byte("`define WIDTH 16\nmodule lib_mod; endmodule\n"))
	tree := FromBuffer(m, id, []Macro{{Name: "WIDTH"}})
	if len(tree.Macros) != 0 {
		t.Fatalf("inherited macro counted as newly defined: %v", tree.Macros)
	}
}

func TestCollectMissingNames(t *testing.T) {
	tree := scanTree(t, `
module top;
  alu u_alu (.x(1));
  sub u_sub (.y(2));
endmodule

module sub;
endmodule
`)
	known := make(map[string]struct{})
	tree.AddKnownNames(known)
	if _, ok := known["top"]; !ok {
		t.Fatalf("known names missing top: %v", known)
	}

	missing := make(map[string]struct{})
	tree.CollectMissingNames(known, missing)
	if _, ok := missing["alu"]; !ok {
		t.Fatalf("alu not reported missing: %v", missing)
	}
	if _, ok := missing["sub"]; ok {
		t.Fatalf("sub reported missing despite local declaration")
	}
}

func TestCommentsAndStringsIgnored(t *testing.T) {
	tree := scanTree(t, `
// module fake1;
/* module fake2; */
module real_mod;
  initial $display("module fake3;");
endmodule
`)
	if got := refNames(tree.Meta.TopLevelDecls); !slices.Equal(got, []string{"real_mod"}) {
		t.Fatalf("decls = %v", got)
	}
}
