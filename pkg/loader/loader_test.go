package loader_test

import (
	"errors"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	formsync "github.com/goliatone/go-formsync"
	"github.com/goliatone/go-formsync/pkg/loader"
)

func TestLoadFSReadsYAMLAndJSON(t *testing.T) {
	forms, err := loader.LoadFS(os.DirFS("testdata/forms"))
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}

	var ids []string
	for _, form := range forms {
		ids = append(ids, form.ID)
	}
	if diff := cmp.Diff([]string{"billing", "notes", "profile", "shipping"}, ids); diff != "" {
		t.Fatalf("form ids mismatch (-want +got):\n%s", diff)
	}

	byID := map[string]formsync.FormConfig{}
	for _, form := range forms {
		byID[form.ID] = form
	}

	profile := byID["profile"]
	region, ok := profile.Input("region")
	if !ok {
		t.Fatalf("profile.region missing")
	}
	wantRegion := []formsync.Dependency{formsync.Scoped("country", "", "PT", "ES")}
	if diff := cmp.Diff(wantRegion, region.Dependencies); diff != "" {
		t.Fatalf("region dependencies mismatch (-want +got):\n%s", diff)
	}
	nickname, _ := profile.Input("nickname")
	if diff := cmp.Diff([]formsync.Dependency{formsync.Simple("region")}, nickname.Dependencies); diff != "" {
		t.Fatalf("nickname dependencies mismatch (-want +got):\n%s", diff)
	}

	vat, _ := byID["billing"].Input("vat")
	if diff := cmp.Diff([]formsync.Dependency{formsync.Scoped("country", "profile", "PT")}, vat.Dependencies); diff != "" {
		t.Fatalf("vat dependencies mismatch (-want +got):\n%s", diff)
	}
	plan, _ := byID["billing"].Input("plan")
	wantChoices := []formsync.InputOption{{Value: "basic", Label: "Basic"}, {Value: "pro", Label: "Pro"}}
	if diff := cmp.Diff(wantChoices, plan.Choices); diff != "" {
		t.Fatalf("plan choices mismatch (-want +got):\n%s", diff)
	}

	express, _ := byID["shipping"].Input("express")
	if express.EnabledWhen != `country == "PT"` || express.Value != false {
		t.Fatalf("unexpected shipping.express: %#v", express)
	}
}

func TestLoadFSRejectsDuplicateIDs(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte("id: profile\ninputsConfig: {}\n")},
		"b.json": {Data: []byte(`{"id": "profile"}`)},
	}
	_, err := loader.LoadFS(fsys)
	if err == nil || !strings.Contains(err.Error(), `duplicate form "profile"`) {
		t.Fatalf("expected duplicate form error, got %v", err)
	}
}

func TestLoadFSRequiresIDsInFormLists(t *testing.T) {
	fsys := fstest.MapFS{
		"list.yaml": {Data: []byte("forms:\n  - inputsConfig:\n      a:\n        value: 1\n")},
	}
	_, err := loader.LoadFS(fsys)
	if !errors.Is(err, formsync.ErrFormIDRequired) {
		t.Fatalf("expected ErrFormIDRequired, got %v", err)
	}
}

func TestLoadFSStrictRejectsUnknownKeys(t *testing.T) {
	fsys := fstest.MapFS{
		"profile.yaml": {Data: []byte("id: profile\ntitle: Profile\n")},
	}
	if _, err := loader.LoadFS(fsys); err != nil {
		t.Fatalf("lenient load failed: %v", err)
	}
	_, err := loader.LoadFS(fsys, loader.WithStrict())
	if err == nil || !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestLoadFSRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"empty.yaml":  "   \n",
		"broken.yaml": "id: [unterminated\n",
		"forms.yaml":  "forms: profile\n",
		"badkey.yaml": "inputsConfig:\n  a:\n    dependencies:\n      - {parentFormId: other}\n",
	}
	for name, body := range cases {
		name, body := name, body
		t.Run(name, func(t *testing.T) {
			_, err := loader.LoadFS(fstest.MapFS{name: {Data: []byte(body)}})
			if err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestLoadFSNilFilesystem(t *testing.T) {
	forms, err := loader.LoadFS(nil)
	if err != nil || forms != nil {
		t.Fatalf("expected nil result, got %v %v", forms, err)
	}
}
