package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/samber/lo"
)

// CompletionCmd generates shell completions from the command model
type CompletionCmd struct {
	Shell string `arg:"" enum:"bash,zsh,fish" help:"Shell type (bash, zsh, fish)"`
}

// completionIndex maps a command path ("" for root, "config__show" for
// nested) to the words that may follow it.
type completionIndex struct {
	Subcommands map[string][]string
	Flags       map[string][]string
	Enums       map[string][]string // --flag -> values
}

// Run executes the completion command
func (c *CompletionCmd) Run(globals *Globals, ctx *kong.Context) error {
	var model *kong.Node
	if ctx != nil && ctx.Model != nil {
		model = ctx.Model.Node
	}
	idx := buildCompletionIndex(model)

	var script string
	switch c.Shell {
	case "bash":
		script = bashCompletion(idx)
	case "zsh":
		script = zshCompletion(idx)
	case "fish":
		script = fishCompletion(idx)
	default:
		return fmt.Errorf("unsupported shell: %s", c.Shell)
	}
	_, err := fmt.Fprint(globals.Stdout, script)
	return err
}

func buildCompletionIndex(model *kong.Node) completionIndex {
	idx := completionIndex{
		Subcommands: map[string][]string{},
		Flags:       map[string][]string{},
		Enums:       map[string][]string{},
	}
	if model == nil {
		return idx
	}

	var walk func(n *kong.Node, path string)
	walk = func(n *kong.Node, path string) {
		children := lo.Filter(n.Children, func(child *kong.Node, _ int) bool {
			return child != nil && child.Type == kong.CommandNode && !child.Hidden
		})
		idx.Subcommands[path] = sortedUnique(lo.Map(children, func(child *kong.Node, _ int) string { return child.Name }))

		var flags []string
		for _, group := range n.AllFlags(true) {
			for _, f := range group {
				if f == nil || f.Hidden {
					continue
				}
				long := "--" + f.Name
				flags = append(flags, long)
				if f.Short != 0 {
					flags = append(flags, "-"+string(f.Short))
				}
				if f.Enum != "" {
					idx.Enums[long] = sortedUnique(strings.Split(f.Enum, ","))
				}
			}
		}
		idx.Flags[path] = sortedUnique(flags)

		for _, child := range children {
			next := child.Name
			if path != "" {
				next = path + "__" + child.Name
			}
			walk(child, next)
		}
	}
	walk(model, "")
	return idx
}

func sortedUnique(in []string) []string {
	out := lo.Uniq(lo.FilterMap(in, func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	}))
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string][]string) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}

func bashCompletion(idx completionIndex) string {
	var sb strings.Builder
	sb.WriteString(`# bmxt bash completion script
# Add to ~/.bashrc:
#   eval "$(bmxt completion bash)"

_bmxt_completions() {
    local cur prev words cword
    _init_completion || return

    local cmdpath=""
    local i
    for ((i=1; i < cword; i++)); do
        local w=${words[i]}
        [[ "${w}" == -* || -z "${w}" ]] && continue
        local next="${cmdpath:+${cmdpath}__}${w}"
        case "${next}" in
`)
	for _, path := range sortedKeys(idx.Subcommands) {
		if path != "" {
			fmt.Fprintf(&sb, "            %s) cmdpath=\"${next}\" ;;\n", path)
		}
	}
	sb.WriteString(`            *) break ;;
        esac
    done

    case "${prev}" in
`)
	for _, flag := range sortedKeys(idx.Enums) {
		fmt.Fprintf(&sb, "        %s)\n            COMPREPLY=($(compgen -W \"%s\" -- \"${cur}\"))\n            return\n            ;;\n",
			flag, strings.Join(idx.Enums[flag], " "))
	}
	sb.WriteString(`    esac

    local subcommands="" flags=""
    case "${cmdpath}" in
`)
	for _, path := range sortedKeys(idx.Flags) {
		fmt.Fprintf(&sb, "        \"%s\")\n            subcommands=\"%s\"\n            flags=\"%s\"\n            ;;\n",
			path, strings.Join(idx.Subcommands[path], " "), strings.Join(idx.Flags[path], " "))
	}
	sb.WriteString(`    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=($(compgen -W "${flags}" -- "${cur}"))
    else
        COMPREPLY=($(compgen -W "${subcommands}" -- "${cur}"))
    fi
}

complete -F _bmxt_completions bmxt
`)
	return sb.String()
}

func zshCompletion(idx completionIndex) string {
	var sb strings.Builder
	sb.WriteString(`#compdef bmxt
# bmxt zsh completion script
# Add to ~/.zshrc:
#   eval "$(bmxt completion zsh)"

_bmxt() {
  local cur="${words[CURRENT]}" prev="${words[CURRENT-1]}" cmdpath="" next i
  for ((i=2; i < CURRENT; i++)); do
    [[ "${words[i]}" == -* || -z "${words[i]}" ]] && continue
    next="${cmdpath:+${cmdpath}__}${words[i]}"
    case "${next}" in
`)
	for _, path := range sortedKeys(idx.Subcommands) {
		if path != "" {
			fmt.Fprintf(&sb, "      %s) cmdpath=\"${next}\" ;;\n", path)
		}
	}
	sb.WriteString(`      *) break ;;
    esac
  done

  case "${prev}" in
`)
	for _, flag := range sortedKeys(idx.Enums) {
		fmt.Fprintf(&sb, "    %s) compadd -- %s; return ;;\n", flag, strings.Join(idx.Enums[flag], " "))
	}
	sb.WriteString(`  esac

  local -a subcommands flags
  case "${cmdpath}" in
`)
	for _, path := range sortedKeys(idx.Flags) {
		fmt.Fprintf(&sb, "    \"%s\") subcommands=(%s); flags=(%s) ;;\n",
			path, strings.Join(idx.Subcommands[path], " "), strings.Join(idx.Flags[path], " "))
	}
	sb.WriteString(`  esac

  if [[ "${cur}" == -* ]]; then
    compadd -- ${flags[@]}
  else
    compadd -- ${subcommands[@]}
  fi
}

compdef _bmxt bmxt
`)
	return sb.String()
}

func fishCompletion(idx completionIndex) string {
	var sb strings.Builder
	sb.WriteString(`# bmxt fish completion script
# Add to ~/.config/fish/completions/bmxt.fish

complete -c bmxt -f

`)
	for _, cmd := range idx.Subcommands[""] {
		fmt.Fprintf(&sb, "complete -c bmxt -n \"__fish_use_subcommand\" -a \"%s\"\n", cmd)
	}

	// long flags of every command; fish does not scope them per subcommand here
	var flags []string
	for _, path := range sortedKeys(idx.Flags) {
		flags = append(flags, idx.Flags[path]...)
	}
	for _, flag := range sortedUnique(flags) {
		long, ok := strings.CutPrefix(flag, "--")
		if !ok {
			continue
		}
		if values, ok := idx.Enums[flag]; ok {
			fmt.Fprintf(&sb, "complete -c bmxt -l %s -xa \"%s\"\n", long, strings.Join(values, " "))
			continue
		}
		fmt.Fprintf(&sb, "complete -c bmxt -l %s\n", long)
	}
	return sb.String()
}
