package dialogue_test

import (
	"context"
	"fmt"
	"log"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/dialogue"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/validate"
)

// Example_script builds a two-question script and drives it with inbound
// messages the way a transport would.
func Example_script() {
	s := dialogue.NewScript("greeting", "state_name")
	s.Handle("state_name", dialogue.Static(&dialogue.FreeText{
		Question: "What is your name?",
		Check:    validate.Name("Please TYPE your name"),
		Next:     dialogue.To("state_bye"),
	}))
	s.Handle("state_bye", func(_ context.Context, t *dialogue.Turn) (dialogue.State, error) {
		return &dialogue.End{Text: fmt.Sprintf("Goodbye %s.", t.Answer("state_name"))}, nil
	})

	app := dialogue.New(s)
	defer app.Close()

	ctx := context.Background()
	for _, content := range []*string{nil, domain.StringPtr("Thandi")} {
		event := domain.SessionResume
		if content == nil {
			event = domain.SessionNew
		}
		msg := domain.NewInbound("27820001001", "vaxbot", "whatsapp", domain.TransportHTTPAPI, content, event)
		out, err := app.Handle(ctx, msg)
		if err != nil {
			log.Fatal(err)
		}
		for _, m := range out {
			fmt.Println(m.Text())
		}
	}
	// Output:
	// What is your name?
	// Goodbye Thandi.
}
