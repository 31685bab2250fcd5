package seeder

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Sampler is the source of every random value the seeder draws.
type Sampler interface {
	CarName() string
	Color(colors []string) string
	Created(from time.Time, to time.Time) time.Time
	Days(r DayRange) int
	OwnerName() string
}

// DayRange is an inclusive range of whole days.
type DayRange struct {
	Min int
	Max int
}

// =============================================================================

// FakeSampler draws values from a gofakeit generator.
type FakeSampler struct {
	faker *gofakeit.Faker
	title cases.Caser
}

// NewFakeSampler constructs a sampler from the seed. A zero seed draws a
// random one, any other seed reproduces the same sequence.
func NewFakeSampler(seed uint64) *FakeSampler {
	return &FakeSampler{
		faker: gofakeit.New(seed),
		title: cases.Title(language.English),
	}
}

// CarName returns two title-cased words such as "Frosty Meadow".
func (fs *FakeSampler) CarName() string {
	return fs.title.String(fs.faker.Adjective() + " " + fs.faker.Noun())
}

// Color picks one of the colors uniformly.
func (fs *FakeSampler) Color(colors []string) string {
	return fs.faker.RandomString(colors)
}

// Created returns a UTC time uniformly between from and to.
func (fs *FakeSampler) Created(from time.Time, to time.Time) time.Time {
	return fs.faker.DateRange(from, to).UTC()
}

// Days returns a uniform integer in the inclusive range.
func (fs *FakeSampler) Days(r DayRange) int {
	return fs.faker.IntRange(r.Min, r.Max)
}

// OwnerName returns a person's full name.
func (fs *FakeSampler) OwnerName() string {
	return fs.faker.Name()
}
