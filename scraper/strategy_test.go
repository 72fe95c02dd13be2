package scraper

import (
	"context"
	"testing"

	"github.com/use-agent/harvest/models"
)

func TestGrowthStrategy_EqualReadingsTerminateInOneCycle(t *testing.T) {
	d := &fakeDriver{} // constant growth signal
	strat := &GrowthStrategy{}

	decision, err := strat.Step(context.Background(), d)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if decision != Done {
		t.Error("equal before/after readings did not terminate")
	}
	if d.scrolls != 1 || d.settles != 1 || d.measureCalls != 2 {
		t.Errorf("cycle actions: scrolls=%d settles=%d measures=%d, want 1/1/2",
			d.scrolls, d.settles, d.measureCalls)
	}
}

func TestGrowthStrategy_ContinuesWhileGrowing(t *testing.T) {
	readings := []models.GrowthSignal{100, 200, 200, 200}
	d := &fakeDriver{measure: func(call int) models.GrowthSignal {
		return readings[call-1]
	}}
	strat := &GrowthStrategy{}

	decision, err := strat.Step(context.Background(), d)
	if err != nil {
		t.Fatalf("cycle 1: %v", err)
	}
	if decision != Continue {
		t.Fatal("growing document terminated early")
	}

	decision, err = strat.Step(context.Background(), d)
	if err != nil {
		t.Fatalf("cycle 2: %v", err)
	}
	if decision != Done {
		t.Error("stable document did not terminate")
	}
}

func TestGrowthStrategy_GracePeriod(t *testing.T) {
	// Growth stalls from the start; with StableReadings=2 the first
	// stable cycle is not yet definitive.
	d := &fakeDriver{}
	strat := &GrowthStrategy{StableReadings: 2}

	decision, _ := strat.Step(context.Background(), d)
	if decision != Continue {
		t.Fatal("first stable reading terminated despite grace period")
	}
	decision, _ = strat.Step(context.Background(), d)
	if decision != Done {
		t.Error("second consecutive stable reading did not terminate")
	}
}

func TestGrowthStrategy_GrowthResetsGracePeriod(t *testing.T) {
	readings := []models.GrowthSignal{100, 100, 100, 200, 200, 200, 200, 200}
	d := &fakeDriver{measure: func(call int) models.GrowthSignal {
		return readings[call-1]
	}}
	strat := &GrowthStrategy{StableReadings: 2}

	want := []Decision{Continue, Continue, Continue, Done}
	for i, w := range want {
		decision, err := strat.Step(context.Background(), d)
		if err != nil {
			t.Fatalf("cycle %d: %v", i+1, err)
		}
		if decision != w {
			t.Fatalf("cycle %d: decision = %v, want %v", i+1, decision, w)
		}
	}
}

func TestControlStrategy_NotFoundTerminatesWithoutClick(t *testing.T) {
	d := &fakeDriver{} // FindControl always NotFound
	strat := &ControlStrategy{Selector: "#load-more", ContainerSelector: "div.item"}

	decision, err := strat.Step(context.Background(), d)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if decision != Done {
		t.Error("absent control did not terminate")
	}
	if d.clicks != 0 {
		t.Errorf("clicked %d times on an empty feed", d.clicks)
	}
}

func TestControlStrategy_InvisibleControlTerminates(t *testing.T) {
	d := &fakeDriver{find: func(int) Control { return &fakeControl{visible: false} }}
	strat := &ControlStrategy{Selector: "#load-more", ContainerSelector: "div.item"}

	decision, err := strat.Step(context.Background(), d)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if decision != Done || d.clicks != 0 {
		t.Errorf("hidden control: decision=%v clicks=%d, want Done/0", decision, d.clicks)
	}
}

func TestControlStrategy_CeilingCheckedBeforeClick(t *testing.T) {
	d := &fakeDriver{
		find:  func(int) Control { return &fakeControl{visible: true} },
		count: 10,
	}
	strat := &ControlStrategy{
		Selector:          "#load-more",
		ContainerSelector: "div.item",
		MaxRecords:        10,
	}

	decision, err := strat.Step(context.Background(), d)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if decision != Done {
		t.Error("full feed did not terminate at the ceiling")
	}
	if d.clicks != 0 {
		t.Errorf("clicked %d times past the ceiling", d.clicks)
	}
}

func TestControlStrategy_ClicksAndContinues(t *testing.T) {
	d := &fakeDriver{
		find:  func(int) Control { return &fakeControl{visible: true} },
		count: 5,
	}
	strat := &ControlStrategy{
		Selector:          "#load-more",
		ContainerSelector: "div.item",
		MaxRecords:        10,
	}

	decision, err := strat.Step(context.Background(), d)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if decision != Continue {
		t.Error("feed below ceiling with a visible control terminated")
	}
	if d.clicks != 1 {
		t.Errorf("clicks = %d, want 1", d.clicks)
	}
	// One settle before the lookup, two after the click for the batch
	// to render.
	if d.settles != 3 {
		t.Errorf("settles = %d, want 3", d.settles)
	}
}

func TestControlStrategy_StaleClickRetriedOnce(t *testing.T) {
	d := &fakeDriver{
		find: func(int) Control { return &fakeControl{visible: true} },
		click: func(call int) error {
			if call == 1 {
				return models.NewScrapeError(models.ErrCodeInteraction, "stale control", nil)
			}
			return nil
		},
	}
	strat := &ControlStrategy{Selector: "#load-more", ContainerSelector: "div.item"}

	decision, err := strat.Step(context.Background(), d)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if decision != Continue {
		t.Error("recovered stale click did not continue")
	}
	if d.clicks != 2 {
		t.Errorf("clicks = %d, want 2 (original + one retry)", d.clicks)
	}
	if d.findCalls != 2 {
		t.Errorf("findCalls = %d, want 2 (retry must re-locate)", d.findCalls)
	}
}

func TestControlStrategy_SecondStaleClickIsFatal(t *testing.T) {
	d := &fakeDriver{
		find: func(int) Control { return &fakeControl{visible: true} },
		click: func(int) error {
			return models.NewScrapeError(models.ErrCodeInteraction, "stale control", nil)
		},
	}
	strat := &ControlStrategy{Selector: "#load-more", ContainerSelector: "div.item"}

	_, err := strat.Step(context.Background(), d)
	if err == nil {
		t.Fatal("two consecutive stale clicks did not fail")
	}
	if !models.IsCode(err, models.ErrCodeDriver) {
		t.Errorf("error code = %s, want %s", models.ErrorCode(err), models.ErrCodeDriver)
	}
	if d.clicks != 2 {
		t.Errorf("clicks = %d, want exactly 2", d.clicks)
	}
}

func TestControlStrategy_ControlVanishedDuringRetry(t *testing.T) {
	d := &fakeDriver{
		find: func(call int) Control {
			if call == 1 {
				return &fakeControl{visible: true}
			}
			return nil // gone by the time we re-locate
		},
		click: func(int) error {
			return models.NewScrapeError(models.ErrCodeInteraction, "stale control", nil)
		},
	}
	strat := &ControlStrategy{Selector: "#load-more", ContainerSelector: "div.item"}

	decision, err := strat.Step(context.Background(), d)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if decision != Done {
		t.Error("vanished control after stale click should terminate")
	}
}
