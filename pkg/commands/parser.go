package commands

import (
	"sync"

	"telegrambot/pkg/objects"
)

// Parser extracts command arguments from message text.
type Parser struct {
	locator EntityLocator

	mu       sync.RWMutex
	grammars map[string]*Grammar
}

// NewParser creates a parser.
func NewParser() *Parser {
	return &Parser{grammars: make(map[string]*Grammar)}
}

// Grammar returns the compiled grammar for cmd. Grammars are cached by
// pattern source.
func (p *Parser) Grammar(cmd Command) (*Grammar, error) {
	specs := ParameterSpecs(cmd)
	key := GrammarPattern(specs)

	p.mu.RLock()
	g, ok := p.grammars[key]
	p.mu.RUnlock()
	if ok {
		return g, nil
	}

	g, err := Compile(specs)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.grammars[key] = g
	p.mu.Unlock()
	return g, nil
}

// Arguments parses the arguments of cmd from the part of the message that
// belongs to entity.
func (p *Parser) Arguments(cmd Command, update *objects.Update, entity objects.MessageEntity) (Arguments, error) {
	g, err := p.Grammar(cmd)
	if err != nil {
		return nil, err
	}
	return g.Match(p.RelevantSubstring(update, entity)), nil
}

// RelevantSubstring returns the text from entity up to the next command
// entity, or to the end of the text.
func (p *Parser) RelevantSubstring(update *objects.Update, entity objects.MessageEntity) string {
	text, ok := p.locator.Text(update)
	if !ok {
		if msg := update.RelatedMessage(); msg != nil {
			return msg.Text
		}
		return ""
	}

	offsets := p.locator.CommandOffsets(update)
	if len(offsets) == 0 {
		return text
	}
	for i, off := range offsets {
		if off != entity.Offset {
			continue
		}
		if i+1 < len(offsets) {
			return objects.SliceUTF16(text, off, offsets[i+1]-off)
		}
		break
	}
	return objects.SliceUTF16(text, entity.Offset, -1)
}

// RequiredParamsNotProvided returns the required parameters of cmd missing
// from provided, in declaration order.
func (p *Parser) RequiredParamsNotProvided(cmd Command, provided Arguments) []string {
	return missingArguments(RequiredParameters(cmd), provided)
}

func missingArguments(required []string, provided Arguments) []string {
	var missing []string
	for _, name := range required {
		if _, ok := provided[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
