// docbase is a multi-tenant document knowledge base service with
// retrieval-augmented, citation-backed question answering.
package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/kart-io/docbase/internal/docbase"
	"github.com/kart-io/docbase/pkg/app"

	// 注册模型提供方。
	_ "github.com/kart-io/docbase/pkg/llm/ollama"
	_ "github.com/kart-io/docbase/pkg/llm/openai"
)

func main() {
	opts := docbase.NewOptions()

	application := app.NewApp(
		app.WithName("docbase"),
		app.WithShortDescription("Document knowledge base service"),
		app.WithDescription(`docbase ingests PDF, text and markdown documents into a
vector index and answers questions about them with numbered citations.`),
		app.WithOptions(opts),
		app.WithRunFunc(func() error {
			return docbase.Run(opts)
		}),
	)

	application.Run()
}
