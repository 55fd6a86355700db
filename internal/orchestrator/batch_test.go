package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zbeam/zbeam/internal/detect"
	"github.com/zbeam/zbeam/internal/llm"
)

func TestCalculateBatchSize(t *testing.T) {
	// Subtitles target ~110 characters, so three are needed to clear a
	// 300-character detector floor.
	size, err := CalculateBatchSize("subtitle", 300, 5)
	require.NoError(t, err)
	require.Equal(t, 3, size)

	// The configured maximum caps the computed size.
	size, err = CalculateBatchSize("subtitle", 300, 2)
	require.NoError(t, err)
	require.Equal(t, 2, size)

	// Long-form components already clear the floor alone.
	size, err = CalculateBatchSize("description", 300, 5)
	require.NoError(t, err)
	require.Equal(t, 1, size)

	_, err = CalculateBatchSize("nonsense", 300, 5)
	require.Error(t, err)
}

func TestSplitBatches(t *testing.T) {
	materials := []string{"a", "b", "c", "d", "e", "f", "g"}
	batches := SplitBatches(materials, 4)
	require.Len(t, batches, 2)
	require.Equal(t, []string{"a", "b", "c", "d"}, batches[0])
	require.Equal(t, []string{"e", "f", "g"}, batches[1])

	require.Len(t, SplitBatches(materials, 10), 1)
	require.Len(t, SplitBatches(materials, 0), 7)
}

func TestBatchGenerateOneFailureDoesNotAbort(t *testing.T) {
	// The model answers with sections for Aluminum and Copper but drops
	// Steel. Steel fails alone; the other two are accepted and written.
	response := "[MATERIAL: Aluminum]\n" + readableText + "\n[/MATERIAL: Aluminum]\n" +
		"[MATERIAL: Copper]\n" + readableText + "\n[/MATERIAL: Copper]\n"
	client := &llm.ScriptedClient{Responses: []string{response}}
	detector := &detect.ScriptedDetector{Results: []detect.Result{{AIScore: 0.20, HumanScore: 85}}}

	deps := testDeps(t, testConfig(3), client, detector)
	o, err := New(deps)
	require.NoError(t, err)
	bg := NewBatchGenerator(o)

	res, err := bg.Generate(context.Background(), []string{"Aluminum", "Copper", "Steel"}, "subtitle")
	require.NoError(t, err)
	require.Equal(t, 1, res.SubBatches)
	require.Equal(t, 2, res.Succeeded)
	require.Equal(t, 1, res.Failed)

	// One detector call scores the whole sub-batch.
	require.Equal(t, 1, detector.Calls())
	require.Contains(t, detector.Texts[0], readableText)

	byMaterial := map[string]ItemResult{}
	for _, item := range res.Items {
		byMaterial[item.Material] = item
	}
	require.True(t, byMaterial["Aluminum"].Success)
	require.True(t, byMaterial["Copper"].Success)
	require.False(t, byMaterial["Steel"].Success)
	require.Contains(t, byMaterial["Steel"].FailureReason, "no marked section")

	// The broadcast score lands on every scored item.
	require.InDelta(t, 0.20, byMaterial["Aluminum"].AIScore, 1e-9)
	require.InDelta(t, 85, byMaterial["Copper"].HumanScore, 1e-9)

	item, err := deps.Store.ItemData("Copper")
	require.NoError(t, err)
	require.Equal(t, readableText, item["subtitle"])
	item, err = deps.Store.ItemData("Steel")
	require.NoError(t, err)
	require.NotContains(t, item, "subtitle")

	// The unparsed material enters the history as a failed attempt
	// alongside the two scored successes.
	successes, total, err := deps.Attempts.SuccessRate("subtitle", time.Hour)
	require.NoError(t, err)
	require.Equal(t, 2, successes)
	require.Equal(t, 3, total)
}

func TestBatchGenerateRejectionRecordsFailure(t *testing.T) {
	response := "[MATERIAL: Aluminum]\n" + readableText + "\n[/MATERIAL: Aluminum]\n"
	client := &llm.ScriptedClient{Responses: []string{response}}
	detector := &detect.ScriptedDetector{Results: []detect.Result{{AIScore: 0.80, HumanScore: 20}}}

	deps := testDeps(t, testConfig(3), client, detector)
	o, err := New(deps)
	require.NoError(t, err)
	bg := NewBatchGenerator(o)

	res, err := bg.Generate(context.Background(), []string{"Aluminum"}, "subtitle")
	require.NoError(t, err)
	require.Equal(t, 0, res.Succeeded)
	require.Equal(t, 1, res.Failed)
	require.Contains(t, res.Items[0].FailureReason, "threshold")

	successes, total, err := deps.Attempts.SuccessRate("subtitle", time.Hour)
	require.NoError(t, err)
	require.Equal(t, 0, successes)
	require.Equal(t, 1, total)
}

func TestBatchPromptCarriesMarkersAndContext(t *testing.T) {
	client := &llm.ScriptedClient{Responses: []string{"no markers here"}}
	detector := &detect.ScriptedDetector{}

	deps := testDeps(t, testConfig(3), client, detector)
	o, err := New(deps)
	require.NoError(t, err)
	bg := NewBatchGenerator(o)

	_, err = bg.Generate(context.Background(), []string{"Aluminum", "Copper"}, "subtitle")
	require.NoError(t, err)
	require.Equal(t, 1, client.Calls())

	p := client.Requests[0].Prompt
	require.Contains(t, p, "[MATERIAL: <name>]")
	require.Contains(t, p, "=== Aluminum ===")
	require.Contains(t, p, "=== Copper ===")
	require.True(t, strings.Contains(p, "laser-cleaning"))
}
