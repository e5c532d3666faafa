package scanner

import (
	"testing"
)

func names(decls []Declaration) []string {
	out := make([]string, 0, len(decls))
	for _, d := range decls {
		out = append(out, d.Name)
	}
	return out
}

func parsePHP(t *testing.T, src string) []Declaration {
	t.Helper()
	s, err := New(Options{Syntax: PHPSyntax()})
	if err != nil {
		t.Fatal(err)
	}
	return s.Parse("x.php", []byte(src))
}

func assertNames(t *testing.T, got []Declaration, want ...string) {
	t.Helper()
	gotNames := names(got)
	if len(gotNames) != len(want) {
		t.Fatalf("expected %v, got %v", want, gotNames)
	}
	for i := range want {
		if gotNames[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, gotNames)
		}
	}
}

func TestParse_NamespaceAndTypeKinds(t *testing.T) {
	decls := parsePHP(t, `<?php
declare(strict_types=1);

namespace Acme\A;

use Acme\Shared\Base;

final class Widget extends Base implements \Countable
{
    public function count(): int { return 0; }
}

interface Renderable {}
trait Loggable {}
enum Suit: string { case Hearts = 'H'; }
`)
	assertNames(t, decls, `Acme\A\Widget`, `Acme\A\Renderable`, `Acme\A\Loggable`, `Acme\A\Suit`)

	kinds := []string{"class", "interface", "trait", "enum"}
	for i, kind := range kinds {
		if decls[i].Kind != kind {
			t.Errorf("declaration %d: expected kind %s, got %s", i, kind, decls[i].Kind)
		}
	}
	if decls[0].Line != 8 {
		t.Errorf("expected Widget on line 8, got %d", decls[0].Line)
	}
	if decls[0].File != "x.php" {
		t.Errorf("expected file to be recorded, got %q", decls[0].File)
	}
}

func TestParse_GlobalNamespace(t *testing.T) {
	assertNames(t, parsePHP(t, "<?php\nclass tx_legacy_Plugin {}\n"), "tx_legacy_Plugin")
}

func TestParse_BracedNamespaces(t *testing.T) {
	decls := parsePHP(t, `<?php
namespace Vendor\One {
    class Alpha {}
}
namespace Vendor\Two {
    class Beta {}
}
namespace {
    class GlobalGamma {}
}
`)
	assertNames(t, decls, `Vendor\One\Alpha`, `Vendor\Two\Beta`, "GlobalGamma")
}

func TestParse_IgnoresNonDeclarations(t *testing.T) {
	decls := parsePHP(t, `<?php
namespace App;

// class CommentedOut {}
# class HashCommented {}
/* class BlockCommented {} */
/**
 * @see class DocBlock
 */
#[Attribute(Attribute::TARGET_CLASS)]
class Real
{
    public function make()
    {
        $name = Real::class;
        $other = static::class;
        $anon = new class {
            public $class = 'class Fake {}';
        };
        $obj->class;
        $obj?->class;
        $s = "interface NotMe {}";
        $t = 'trait NorMe {}';
        $h = <<<EOT
class InHeredoc {}
EOT;
        $n = <<<'NOW'
    enum InNowdoc {}
    NOW;
        return $anon;
    }
}
`)
	assertNames(t, decls, `App\Real`)
}

func TestParse_CaseInsensitiveKeywords(t *testing.T) {
	assertNames(t, parsePHP(t, "<?php NAMESPACE Mixed\\Case; CLASS Thing {}"), `Mixed\Case\Thing`)
}

func TestParse_InlineTextOutsideCodeTags(t *testing.T) {
	decls := parsePHP(t, `<html><body>this class Ghost is prose</body></html>
<?php class Visible {} ?>
<p>interface AlsoProse</p>
<?php interface Second {}
`)
	assertNames(t, decls, "Visible", "Second")
}

func TestParse_NoCodeOpenTag(t *testing.T) {
	if decls := parsePHP(t, "class Plain {}"); len(decls) != 0 {
		t.Fatalf("expected nothing outside code tags, got %v", names(decls))
	}
}

func TestParse_LineCommentEndsAtCodeClose(t *testing.T) {
	decls := parsePHP(t, "<?php // comment ?> text <?php class AfterClose {}")
	assertNames(t, decls, "AfterClose")
}

func TestParse_ConditionalDefinitionsReportedInSourceOrder(t *testing.T) {
	decls := parsePHP(t, `<?php
if (PHP_VERSION_ID >= 80000) {
    class Compat {}
} else {
    class Compat {}
}
`)
	assertNames(t, decls, "Compat", "Compat")
}

func TestParse_CustomSyntax(t *testing.T) {
	syntax := Syntax{
		Name:             "toy",
		Extensions:       []string{".ext"},
		NamespaceKeyword: "package",
		Separator:        ".",
		TypeKeywords:     []string{"type"},
		LineComments:     []string{"--"},
		Quotes:           []byte{'"'},
	}
	s, err := New(Options{Syntax: syntax})
	if err != nil {
		t.Fatal(err)
	}
	decls := s.Parse("a.ext", []byte("package acme.tools\n-- type Hidden\ntype Hammer\nx = \"type Str\"\n"))
	assertNames(t, decls, "acme.tools.Hammer")
}

func TestHeredoc_UnterminatedConsumesRest(t *testing.T) {
	decls := parsePHP(t, "<?php $x = <<<EOT\nclass Never {}\n")
	if len(decls) != 0 {
		t.Fatalf("expected no declarations, got %v", names(decls))
	}
}

func TestLineIndex(t *testing.T) {
	idx := newLineIndex([]byte("a\nbb\nccc"))
	cases := map[int]int{0: 1, 2: 2, 3: 2, 5: 3, 7: 3}
	for offset, want := range cases {
		if got := idx.at(offset); got != want {
			t.Errorf("offset %d: expected line %d, got %d", offset, want, got)
		}
	}
}
