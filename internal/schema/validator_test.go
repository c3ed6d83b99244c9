package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/oicur0t/sensorconv/internal/errs"
	"go.uber.org/zap/zaptest"
)

const testXSD = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="logs">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="entry" minOccurs="0" maxOccurs="unbounded">
          <xs:complexType>
            <xs:sequence>
              <xs:element name="humidity" type="xs:int"/>
            </xs:sequence>
            <xs:attribute name="id" type="xs:positiveInteger" use="required"/>
          </xs:complexType>
        </xs:element>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func openSession(t *testing.T) *Session {
	t.Helper()
	s, err := Open(zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	xsd := writeFile(t, dir, "logs.xsd", testXSD)

	tests := []struct {
		name string
		xml  string
		want Outcome
	}{
		{"valid", `<logs><entry id="1"><humidity>40</humidity></entry></logs>`, Valid},
		{"empty root", `<logs/>`, Valid},
		{"wrong type", `<logs><entry id="1"><humidity>damp</humidity></entry></logs>`, Invalid},
		{"missing attribute", `<logs><entry><humidity>1</humidity></entry></logs>`, Invalid},
		{"not well formed", `<logs><entry>`, Invalid},
	}

	s := openSession(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "doc.xml", tt.xml)
			result, err := s.Validate(path, xsd)
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if result.Outcome != tt.want {
				t.Errorf("outcome = %v, want %v (problems %+v)", result.Outcome, tt.want, result.Problems)
			}
			if tt.want == Invalid && len(result.Problems) == 0 {
				t.Error("invalid result carries no problems")
			}
		})
	}
}

func TestValidateBrokenSchema(t *testing.T) {
	dir := t.TempDir()
	xsd := writeFile(t, dir, "broken.xsd", `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element/></xs:schema>`)
	doc := writeFile(t, dir, "doc.xml", `<logs/>`)

	result, err := openSession(t).Validate(doc, xsd)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Outcome != InternalError {
		t.Errorf("outcome = %v, want InternalError", result.Outcome)
	}
}

func TestValidateMissingFiles(t *testing.T) {
	dir := t.TempDir()
	xsd := writeFile(t, dir, "logs.xsd", testXSD)
	s := openSession(t)

	if _, err := s.Validate(filepath.Join(dir, "nope.xml"), xsd); !errors.Is(err, errs.ErrIO) {
		t.Errorf("missing xml error = %v, want IOError", err)
	}
	if _, err := s.Validate(xsd, filepath.Join(dir, "nope.xsd")); !errors.Is(err, errs.ErrIO) {
		t.Errorf("missing xsd error = %v, want IOError", err)
	}
}

func TestSessionsShareInitialization(t *testing.T) {
	first := openSession(t)
	second, err := Open(zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	second.Close()
	second.Close()

	dir := t.TempDir()
	xsd := writeFile(t, dir, "logs.xsd", testXSD)
	doc := writeFile(t, dir, "doc.xml", `<logs/>`)
	if result, err := first.Validate(doc, xsd); err != nil || result.Outcome != Valid {
		t.Errorf("first session after second closed: %v, %v", result.Outcome, err)
	}

	if _, err := second.Validate(doc, xsd); !errors.Is(err, errs.ErrConfig) {
		t.Errorf("closed session Validate error = %v, want ConfigError", err)
	}
	if libxml2.users != 1 {
		t.Errorf("library users = %d after second session closed, want 1", libxml2.users)
	}
}

func TestOutcomeString(t *testing.T) {
	if Valid.String() != "validates" || Invalid.String() != "fails to validate" {
		t.Errorf("unexpected outcome strings %q / %q", Valid, Invalid)
	}
}
