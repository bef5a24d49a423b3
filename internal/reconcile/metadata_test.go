package reconcile

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"vtex-sync/internal/sankhya"
)

func TestSyncMetadataPushesFiveSlots(t *testing.T) {
	backoffice := &fakeBackoffice{
		info: map[string]sankhya.ProductInfo{
			"REF-1": {
				LongDescription:      "a sofa",
				TechnicalDescription: "2m wide",
				ImageURL:             "https://img.example/sofa.png",
				Differentiators:      "reclining",
				MaterialsURL:         "https://materials.example/sofa",
			},
		},
	}
	storefront := &fakeStorefront{}
	notifier := &recordingNotifier{}

	r := New(backoffice, storefront, notifier, testOptions(), zerolog.Nop())

	pairs := []MetadataPair{{StorefrontID: 77, ProductCode: "REF-1"}}
	if err := r.SyncMetadata(context.Background(), pairs); err != nil {
		t.Fatalf("SyncMetadata: %v", err)
	}

	attrs := storefront.specPushes[77]
	if len(attrs) != 5 {
		t.Fatalf("expected 5 specification slots, got %d", len(attrs))
	}

	byID := map[int]string{}
	for _, a := range attrs {
		if len(a.Value) != 1 {
			t.Fatalf("slot %d should carry one value, got %v", a.ID, a.Value)
		}
		byID[a.ID] = a.Value[0]
	}

	if byID[20] != "a sofa" {
		t.Fatalf("slot 20 = %q", byID[20])
	}
	if byID[21] != "reclining" {
		t.Fatalf("slot 21 = %q", byID[21])
	}
	if byID[22] != "2m wide" {
		t.Fatalf("slot 22 = %q", byID[22])
	}
	if byID[23] != "https://materials.example/sofa" {
		t.Fatalf("slot 23 = %q", byID[23])
	}
	if byID[24] != "https://img.example/sofa.png" {
		t.Fatalf("slot 24 = %q", byID[24])
	}

	if notifier.count() != 1 {
		t.Fatalf("expected one alert, got %v", notifier.messages)
	}
}

func TestSyncMetadataFailingPairContinues(t *testing.T) {
	backoffice := &fakeBackoffice{
		info: map[string]sankhya.ProductInfo{"REF-2": {LongDescription: "ok"}},
	}
	storefront := &fakeStorefront{}
	notifier := &recordingNotifier{}

	r := New(backoffice, storefront, notifier, testOptions(), zerolog.Nop())

	pairs := []MetadataPair{
		{StorefrontID: 1, ProductCode: "MISSING"},
		{StorefrontID: 2, ProductCode: "REF-2"},
	}
	if err := r.SyncMetadata(context.Background(), pairs); err != nil {
		t.Fatalf("a failing pair must not abort the batch: %v", err)
	}
	if _, ok := storefront.specPushes[2]; !ok {
		t.Fatal("the healthy pair should still be pushed")
	}
	// one failure alert + one success alert
	if notifier.count() != 2 {
		t.Fatalf("expected 2 alerts, got %v", notifier.messages)
	}
}
