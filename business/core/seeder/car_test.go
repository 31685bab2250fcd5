package seeder_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ardanlabs/carledger/business/core/seeder"
)

func Test_Date(t *testing.T) {
	t.Log("Given the need to serialize dates as extended JSON.")
	{
		t.Logf("\tTest 0:\tWhen marshaling a car.")
		{
			car := seeder.Car{
				Type:     seeder.AssetType,
				Name:     "Quiet Lake",
				Color:    "teal",
				Created:  seeder.Date(time.Date(2018, time.May, 18, 13, 33, 46, 444000000, time.UTC)),
				Designer: seeder.DefaultDesigner,
			}

			data, err := json.Marshal(car)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to marshal: %v", failed, err)
			}

			exp := `{"type":"car","name":"Quiet Lake","color":"teal","datetime_created":{"$date":1526650426444},"designer":"Sergio Tillenham"}`
			if string(data) != exp {
				t.Logf("\t%s\tTest 0:\tgot: %s", failed, data)
				t.Logf("\t%s\tTest 0:\texp: %s", failed, exp)
				t.Fatalf("\t%s\tTest 0:\tShould write the date as $date milliseconds.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould write the date as $date milliseconds.", success)

			var got seeder.Car
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to unmarshal: %v", failed, err)
			}

			if !got.Created.Time().Equal(car.Created.Time()) {
				t.Fatalf("\t%s\tTest 0:\tShould read back the same date: %s", failed, got.Created.Time())
			}
			t.Logf("\t%s\tTest 0:\tShould read back the same date.", success)

			if err := json.Unmarshal([]byte(`{"datetime_created":{}}`), &got); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject a date without $date.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a date without $date.", success)
		}
	}
}
