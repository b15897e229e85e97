package main

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nguyentantai21042004/chart-flow/internal/chart"
	"github.com/nguyentantai21042004/chart-flow/internal/models"
)

func TestPrintGenerationReadsBack(t *testing.T) {
	gen := &models.Generation{
		Summary:      "Left knee pain, settled after ice.",
		NursingChart: "- Plan: ice and rest\n- Assessment: pain 6/10 left knee\n- Goals: walk unaided",
		GeneratedAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		MessageCount: 3,
	}

	var out bytes.Buffer
	printGeneration(&out, gen)

	if !strings.HasPrefix(out.String(), "Generated at 2024-03-01 10:00:00 UTC from 3 messages") {
		t.Errorf("header = %q", strings.SplitN(out.String(), "\n", 2)[0])
	}

	summary, body := chart.SplitResponse(out.String())
	if summary != gen.Summary {
		t.Errorf("summary = %q, want %q", summary, gen.Summary)
	}
	want := []chart.Section{
		{Name: chart.Assessment, Content: "pain 6/10 left knee\n- Goals: walk unaided"},
		{Name: chart.Plan, Content: "ice and rest"},
	}
	if got := chart.Sections(body); !reflect.DeepEqual(got, want) {
		t.Errorf("sections = %#v, want %#v", got, want)
	}
}
