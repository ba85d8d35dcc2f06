package demo

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/carlhu/azql"
)

type Person struct {
	Name     string `db:"name"`
	Height   int    `db:"height_cm"`
	HomeTown string `db:"home_town"`
}

type Place struct {
	Name       string `db:"town_name"`
	Population int    `db:"population"`
}

// open connects to the database. The sqlite3 and postgres drivers are both
// linked in; switch the driver name and DSN to run against Postgres.
func open() (*azql.DB, error) {
	sqldb, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	return azql.NewDB(sqldb), nil
}

func example() error {
	db, err := open()
	if err != nil {
		return err
	}
	createPeople := azql.MustPrepare(azql.SQL(`
		CREATE TABLE people (
			name text,
			height_cm integer,
			home_town text
		);`,
	))
	createPlaces := azql.MustPrepare(azql.SQL(`
		CREATE TABLE location (
			town_name text,
			population integer
		);`,
	))

	var people = []Person{{"Jim", 150, "Kabul"}, {"Saba", 162, "Berlin"}, {"Dave", 169, "Brasília"}, {"Sophie", 174, "Berlin"}, {"Kiri", 168, "Cape Town"}}
	var places = []Place{{"Kabul", 13000000}, {"Berlin", 3677472}, {"Brasília", 3039444}, {"Cape Town", 4710000}}

	// Create the tables
	err = db.Query(context.Background(), createPeople).Run()
	if err != nil {
		return err
	}
	err = db.Query(context.Background(), createPlaces).Run()
	if err != nil {
		return err
	}

	// Insert the people and places, each table in a single batched statement
	insertPeople, err := azql.NewInsert("people").Values(azql.Batch{
		people[0], people[1], people[2], people[3], people[4],
	})
	if err != nil {
		return err
	}
	insertPlaces, err := azql.NewInsert("location").Values(azql.Batch{
		places[0], places[1], places[2], places[3],
	})
	if err != nil {
		return err
	}
	err = db.Query(context.Background(), azql.MustPrepare(insertPeople)).Run()
	if err != nil {
		return err
	}
	err = db.Query(context.Background(), azql.MustPrepare(insertPlaces)).Run()
	if err != nil {
		return err
	}

	// Find people taller than Jim
	jim := people[0]
	tallerThan, err := azql.NewSelect().From("p", "people")
	if err != nil {
		return err
	}
	tallerThan, err = tallerThan.Where(azql.Gt(azql.C("p.height_cm"), jim.Height))
	if err != nil {
		return err
	}
	iter := db.Query(context.Background(), azql.MustPrepare(tallerThan)).Iter()
	for iter.Next() {
		p := Person{}
		if err := iter.Get(&p); err != nil {
			iter.Close()
			return err
		}
		fmt.Printf("%s is taller than %s.\n", p.Name, jim.Name)
	}
	err = iter.Close()
	if err != nil {
		return err
	}

	// Find cities with people taller than Jim
	tallerCity, err := azql.NewSelect().From("p", "people")
	if err != nil {
		return err
	}
	tallerCity, err = tallerCity.From("l", "location")
	if err != nil {
		return err
	}
	tallerCity, err = tallerCity.Where(azql.And(
		azql.Eq(azql.C("p.home_town"), azql.C("l.town_name")),
		azql.Gt(azql.C("p.height_cm"), jim.Height),
	))
	if err != nil {
		return err
	}
	tallCities := []Place{}
	tallPeople := []Person{}
	err = db.Query(context.Background(), azql.MustPrepare(tallerCity)).All(&tallCities, &tallPeople)
	if err != nil {
		return err
	}
	fmt.Printf("This is a list of cities with people taller than Jim: %v\n", tallCities)
	fmt.Printf("This is a list of people taller than Jim: %v\n", tallPeople)
	return nil
}

func main() {
	err := example()
	if err != nil {
		panic(err)
	}
}
