package validate_test

import (
	"testing"

	"github.com/ardanlabs/carledger/foundation/validate"
)

const (
	success = "\u2713"
	failed  = "\u2717"
)

type owner struct {
	Name      string `json:"name" validate:"required"`
	PublicKey string `json:"public_key" validate:"required,startswith=0x"`
	Skipped   string `json:"-"`
}

func Test_Check(t *testing.T) {
	t.Log("Given the need to validate models.")
	{
		t.Logf("\tTest 0:\tWhen handling a valid model.")
		{
			o := owner{Name: "Sergio Tillenham", PublicKey: "0x02ab"}
			if err := validate.Check(o); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept the model: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould accept the model.", success)
		}

		t.Logf("\tTest 1:\tWhen handling an invalid model.")
		{
			err := validate.Check(owner{PublicKey: "02ab"})
			if !validate.IsFieldErrors(err) {
				t.Fatalf("\t%s\tTest 1:\tShould get field errors: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould get field errors.", success)

			fields := validate.GetFieldErrors(err).Fields()
			if len(fields) != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould get two field errors: %v", failed, fields)
			}
			t.Logf("\t%s\tTest 1:\tShould get two field errors.", success)

			for _, name := range []string{"name", "public_key"} {
				if _, exists := fields[name]; !exists {
					t.Fatalf("\t%s\tTest 1:\tShould name the field by its json tag %q: %v", failed, name, fields)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould name the fields by their json tags.", success)
		}
	}
}
