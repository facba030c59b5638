package typescript

import (
	"fmt"
	"strings"

	"github.com/teranos/schemagen/typegen"
)

// supportSource holds helper types referenced by generated modules
const supportSource = `
/** Calendar fields of a broken-down time, without a time zone. */
export interface TimeComponents {
  readonly year: number;
  readonly month: number;
  readonly day: number;
  readonly hour: number;
  readonly minute: number;
  readonly second: number;
  readonly nanosecond: number;
}
`

// IndexFiles creates the barrel export (index.ts), re-exporting every module
// as its namespace, leaf modules first, plus the support module.
func (b *Backend) IndexFiles(r *typegen.Resolver, modules []*typegen.Module, generator string) ([]typegen.File, error) {
	var sb strings.Builder
	sb.WriteString(banner(generator))
	sb.WriteString("\n")
	for _, m := range modules {
		specifier := relativeImport("index.ts", strings.TrimSuffix(r.File(m), ".ts"))
		fmt.Fprintf(&sb, "export * as %s from '%s';\n", r.Alias(m), specifier)
	}
	fmt.Fprintf(&sb, "export type { TimeComponents } from './%s';\n", SupportModule)

	return []typegen.File{
		{RelativePath: "index.ts", Data: []byte(sb.String())},
		{RelativePath: SupportModule + ".ts", Data: []byte(banner(generator) + supportSource)},
	}, nil
}
