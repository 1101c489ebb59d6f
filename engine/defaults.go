package engine

// DefaultReplies is the canned fallback pool used when every other stage
// misses. The pool must never be empty.
var DefaultReplies = []string{
	"Ainda estou aprendendo sobre isso.",
	"Não tenho conhecimento suficiente para responder.",
	"Poderia me ensinar mais sobre esse assunto?",
	"Não entendi bem. Pode explicar de outra forma?",
	"Estou processando esse tema ainda, me desculpe.",
}

func (e *Engine) defaultReply() string {
	return e.defaults[e.rng.Intn(len(e.defaults))]
}
