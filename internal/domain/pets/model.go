package pets

import "time"

// Species define las especies soportadas.
// @Enum dog, cat, other
type Species string

const (
	SpeciesDog   Species = "dog"
	SpeciesCat   Species = "cat"
	SpeciesOther Species = "other"
)

func (s Species) Valid() bool {
	switch s {
	case SpeciesDog, SpeciesCat, SpeciesOther:
		return true
	}
	return false
}

// DogBreed define las razas de perro principales.
type DogBreed string

const (
	BreedLabrador        DogBreed = "labrador"
	BreedGoldenRetriever DogBreed = "golden_retriever"
	BreedGermanShepherd  DogBreed = "german_shepherd"
	BreedBulldog         DogBreed = "bulldog"
	BreedPoodle          DogBreed = "poodle"
	BreedChihuahua       DogBreed = "chihuahua"
	BreedBeagle          DogBreed = "beagle"
	BreedDogOther        DogBreed = "other"
)

// CatBreed define las razas de gato principales.
type CatBreed string

const (
	BreedPersian   CatBreed = "persian"
	BreedSiamese   CatBreed = "siamese"
	BreedMaineCoon CatBreed = "maine_coon"
	BreedBengal    CatBreed = "bengal"
	BreedSphynx    CatBreed = "sphynx"
	BreedCommon    CatBreed = "common"
	BreedCatOther  CatBreed = "other"
)

// Sex define el sexo de la mascota.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// Client es el tutor responsable de la mascota (contacto para el alta).
type Client struct {
	Name  string
	Email string
	Phone string
}

// Pet representa la ficha de una mascota atendida por una clínica.
// ID es la identidad estable que enlaza todos sus episodios de alta.
type Pet struct {
	ID       string
	ClinicID string

	Name    string
	Species Species // dog, cat, other
	Breed   string  // Según especie (DogBreed o CatBreed)
	Sex     Sex     // male, female, unknown

	BirthDate *time.Time
	WeightKg  float64
	Microchip string

	Client Client

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}
