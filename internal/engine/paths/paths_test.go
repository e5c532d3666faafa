package paths

import (
	"testing"

	"autoload/internal/core/errors"
)

func TestCanonicalize(t *testing.T) {
	cases := map[string]string{
		"/srv/app/":                  "/srv/app",
		"/srv//app/./ext/../ext/a":   "/srv/app/ext/a",
		`C:\inetpub\app\ext\Foo.php`: "C:/inetpub/app/ext/Foo.php",
		`c:\`:                        "c:/",
		"C:":                         "C:/",
		"relative/./dir/":            "relative/dir",
		"":                           "",
	}
	for in, want := range cases {
		if got := Canonicalize(in); got != want {
			t.Errorf("Canonicalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRelativize(t *testing.T) {
	tests := []struct {
		name string
		root string
		path string
		want string
	}{
		{name: "nested file", root: "/srv/app", path: "/srv/app/typo3conf/ext/news/Classes/Foo.php", want: "typo3conf/ext/news/Classes/Foo.php"},
		{name: "root itself", root: "/srv/app/", path: "/srv/app", want: ""},
		{name: "windows separators", root: `C:\web\site`, path: `C:\web\site\ext\a\B.php`, want: "ext/a/B.php"},
		{name: "mixed separators", root: "/srv/app", path: `/srv/app\ext\x.php`, want: "ext/x.php"},
		{name: "filesystem root", root: "/", path: "/etc/x.php", want: "etc/x.php"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Relativize(tt.root, tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRelativize_OutsideRoot(t *testing.T) {
	for _, p := range []string{"/srv/app2/ext/x.php", "/srv/other/x.php", "/srv/app/../x.php", "/srv"} {
		_, err := Relativize("/srv/app", p)
		if !errors.IsCode(err, errors.CodePathOutsideRoot) {
			t.Errorf("Relativize(%q): expected PATH_OUTSIDE_ROOT, got %v", p, err)
		}
	}
}

func TestRelativize_EmptyRoot(t *testing.T) {
	if _, err := Relativize("", "/srv/app"); !errors.IsCode(err, errors.CodeValidationError) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveRoundTrip(t *testing.T) {
	roots := []string{"/srv/app", "/srv/app/", `C:\web\site`, "/"}
	rels := []string{"", "a.php", "ext/news/Classes/Domain/Model/Item.php", `ext\legacy\x.inc`, "a/./b/../c.php"}
	for _, root := range roots {
		for _, rel := range rels {
			p := root + "/" + rel
			got, err := Relativize(root, p)
			if err != nil {
				t.Fatalf("Relativize(%q, %q): %v", root, p, err)
			}
			if resolved := Resolve(root, got); resolved != Canonicalize(p) {
				t.Errorf("round trip for root=%q p=%q: got %q, want %q", root, p, resolved, Canonicalize(p))
			}
		}
	}
}

func TestRelativizeDir(t *testing.T) {
	got, err := RelativizeDir("/srv/app", "/srv/app/pkg-a/src/")
	if err != nil {
		t.Fatal(err)
	}
	if got != "pkg-a/src/" {
		t.Fatalf("got %q", got)
	}
	got, err = RelativizeDir("/srv/app", "/srv/app")
	if err != nil || got != "" {
		t.Fatalf("expected empty relative dir for root, got %q, %v", got, err)
	}
}

func TestWithin(t *testing.T) {
	if !Within("/srv/app", "/srv/app/x") {
		t.Error("expected nested path to be within root")
	}
	if Within("/srv/app", "/srv/application") {
		t.Error("sibling prefix must not count as within root")
	}
}
