package batch

import "context"

// Pseudo is a deterministic Translator for exercising the pipeline without a
// real provider. It brackets the source text, leaving embedded tags intact so
// confirmed pseudo-translations still validate.
type Pseudo struct {
	Prefix string
	Suffix string
}

// NewPseudo returns a Pseudo translator with the default brackets.
func NewPseudo() *Pseudo {
	return &Pseudo{Prefix: "[[", Suffix: "]]"}
}

// Translate implements Translator.
func (p *Pseudo) Translate(ctx context.Context, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.Prefix + source + p.Suffix, nil
}
