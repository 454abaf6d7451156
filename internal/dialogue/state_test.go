package dialogue

import (
	"testing"

	"github.com/hpungsan/healthyfy/internal/entity"
	"github.com/hpungsan/healthyfy/internal/intent"
)

func TestNewPending_MissingInDeclaredOrder(t *testing.T) {
	p := NewPending(intent.AddMeal, entity.Bag{entity.SlotCalories: entity.Number(400)})

	want := []entity.Slot{entity.SlotDate, entity.SlotMealType}
	if len(p.Missing) != len(want) {
		t.Fatalf("Missing = %v, want %v", p.Missing, want)
	}
	for i := range want {
		if p.Missing[i] != want[i] {
			t.Errorf("Missing[%d] = %q, want %q", i, p.Missing[i], want[i])
		}
	}
}

func TestPending_FillRecomputes(t *testing.T) {
	p := NewPending(intent.AddWater, nil)
	q := p.Fill(entity.SlotML, entity.Number(250))

	if len(p.Missing) != 2 {
		t.Errorf("Fill mutated the original: %v", p.Missing)
	}
	if len(q.Missing) != 1 || q.Missing[0] != entity.SlotDate {
		t.Errorf("Missing after fill = %v", q.Missing)
	}
	if q.Complete() {
		t.Error("Complete() = true with date missing")
	}
}

func TestState_Validate(t *testing.T) {
	complete := NewPending(intent.Navigate, entity.Bag{entity.SlotDomain: entity.Text("fitness")})
	partial := NewPending(intent.Navigate, nil)

	tests := []struct {
		name    string
		state   State
		wantErr bool
	}{
		{name: "idle", state: Idle()},
		{name: "idle with pending", state: State{Mode: ModeIdle, Pending: complete}, wantErr: true},
		{name: "collecting", state: State{Mode: ModeCollecting, Pending: partial}},
		{name: "collecting complete", state: State{Mode: ModeCollecting, Pending: complete}, wantErr: true},
		{name: "confirming", state: State{Mode: ModeConfirming, Pending: complete}},
		{name: "confirming partial", state: State{Mode: ModeConfirming, Pending: partial}, wantErr: true},
		{name: "confirming nil", state: State{Mode: ModeConfirming}, wantErr: true},
		{
			name:    "stale missing",
			state:   State{Mode: ModeCollecting, Pending: &Pending{Intent: intent.Navigate, Slots: entity.Bag{}, Missing: []entity.Slot{entity.SlotDate}}},
			wantErr: true,
		},
		{
			name:    "meta intent",
			state:   State{Mode: ModeConfirming, Pending: &Pending{Intent: intent.Help, Slots: entity.Bag{}}},
			wantErr: true,
		},
		{name: "unknown mode", state: State{Mode: "dreaming"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfirmText(t *testing.T) {
	tests := []struct {
		pending *Pending
		want    string
	}{
		{
			pending: NewPending(intent.ExportPDF, entity.Bag{entity.SlotDomain: entity.Text("chronic")}),
			want:    "Confirm: export your Chronic summary as a PDF now?",
		},
		{
			pending: NewPending(intent.AddMeal, entity.Bag{
				entity.SlotDate:     entity.Text("2025-12-27"),
				entity.SlotMealType: entity.Text("Dinner"),
				entity.SlotCalories: entity.Number(0),
			}),
			want: "Confirm: add Dinner with 0 calories on 2025-12-27?",
		},
		{
			pending: NewPending(intent.AddSymptom, entity.Bag{
				entity.SlotDate:     entity.Text("2025-12-27"),
				entity.SlotSymptom:  entity.Text("Headache"),
				entity.SlotSeverity: entity.Number(4),
			}),
			want: `Confirm: log symptom "Headache" severity 4/10 on 2025-12-27?`,
		},
		{
			pending: NewPending(intent.MarkReminderDone, entity.Bag{entity.SlotLabel: entity.Text("Drink")}),
			want:    `Confirm: mark reminder "Drink" done for today?`,
		},
	}

	for _, tt := range tests {
		if got := ConfirmText(tt.pending); got != tt.want {
			t.Errorf("ConfirmText(%s) = %q, want %q", tt.pending.Intent, got, tt.want)
		}
	}
}

func TestPrompt_Unknown(t *testing.T) {
	if got := Prompt(entity.Slot("color")); got != "Please provide color." {
		t.Errorf("Prompt = %q", got)
	}
}
