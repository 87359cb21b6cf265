package commands

import (
	"strings"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
)

// Keymap связывает сочетания клавиш с командами. Имена сочетаний нормализуются,
// поэтому "Shift-Ctrl-0" и "Ctrl-Shift-0" - одно и то же.
type Keymap map[string]Command

// NewKeymap создает раскладку из пар сочетание-команда.
func NewKeymap(bindings map[string]Command) Keymap {
	k := make(Keymap, len(bindings))
	for key, cmd := range bindings {
		k[NormalizeKey(key)] = cmd
	}
	return k
}

// Handle выполняет команду, привязанную к сочетанию. false - сочетание не обработано.
func (k Keymap) Handle(key string, s *State) (*State, bool) {
	cmd, ok := k[NormalizeKey(key)]
	if !ok {
		return s, false
	}
	return cmd(s)
}

// Merge объединяет раскладки. Для общих сочетаний команды пробуются в порядке раскладок.
func Merge(maps ...Keymap) Keymap {
	res := make(Keymap)
	for _, m := range maps {
		for key, cmd := range m {
			if prev, ok := res[key]; ok {
				res[key] = Chain(prev, cmd)
				continue
			}
			res[key] = cmd
		}
	}
	return res
}

// NormalizeKey приводит сочетание к виду Alt-Ctrl-Meta-Shift-<клавиша>.
// Mod означает Ctrl.
func NormalizeKey(key string) string {
	parts := strings.Split(key, "-")
	name := parts[len(parts)-1]
	if name == "" && len(parts) > 1 {
		// Сочетание с самим дефисом: "Ctrl--".
		name = "-"
		parts = parts[:len(parts)-1]
	}
	var alt, ctrl, meta, shift bool
	for _, mod := range parts[:len(parts)-1] {
		switch strings.ToLower(mod) {
		case "alt", "a":
			alt = true
		case "ctrl", "control", "c", "mod":
			ctrl = true
		case "meta", "cmd", "m":
			meta = true
		case "shift", "s":
			shift = true
		}
	}
	var sb strings.Builder
	for _, m := range []struct {
		on   bool
		name string
	}{{alt, "Alt-"}, {ctrl, "Ctrl-"}, {meta, "Meta-"}, {shift, "Shift-"}} {
		if m.on {
			sb.WriteString(m.name)
		}
	}
	sb.WriteString(name)
	return sb.String()
}

// Paragraph - команда превращения текстовых блоков в абзац.
func Paragraph(reg *model.Registry) Command {
	return SetBlockType(reg.MustGet(nodes.NameParagraph), nil)
}

// ParagraphKeymap - сочетания клавиш абзаца.
func ParagraphKeymap(reg *model.Registry) Keymap {
	return NewKeymap(map[string]Command{
		"Shift-Ctrl-0": Paragraph(reg),
		"Backspace":    DeleteEmptyFirstParagraph,
	})
}
