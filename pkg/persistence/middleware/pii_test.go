package middleware_test

import (
	"context"
	"testing"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/adapters/memory"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/persistence/middleware"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/ports"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw := middleware.NewPIIMiddleware([]string{"identification_number", "passport"})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	user := domain.NewUser("whatsapp:27820001001")
	user.SetAnswer("state_first_name", "Jane")
	user.SetAnswer("state_identification_number", "9001010001088")
	user.Metadata["lookup"] = map[string]any{
		"suburb":          "Sea Point",
		"passport_number": "A1234567",
	}

	if err := secureStore.Save(ctx, user); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if v, _ := user.Answer("state_identification_number"); v != "9001010001088" {
		t.Error("Middleware modified the in-memory user!")
	}

	stored, err := underlyingStore.Load(ctx, user.Addr)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}

	if v, _ := stored.Answer("state_first_name"); v != "Jane" {
		t.Error("First name shouldn't be masked")
	}
	if v, _ := stored.Answer("state_identification_number"); v != middleware.Mask {
		t.Errorf("ID number should be masked, got: %v", v)
	}

	details := stored.Metadata["lookup"].(map[string]any)
	if details["passport_number"] != middleware.Mask {
		t.Errorf("Nested passport number should be masked, got: %v", details["passport_number"])
	}
	if details["suburb"] != "Sea Point" {
		t.Error("Suburb shouldn't be masked")
	}
}

func TestPIIMiddleware_Contract(t *testing.T) {
	store := middleware.NewPIIMiddleware([]string{"never_matches_anything"})(memory.NewStore())
	ports.RunUserStoreContract(t, store)
}
