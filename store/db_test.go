package store_test

import (
	"errors"

	"github.com/xy-planning-network/switchyard"
	"github.com/xy-planning-network/switchyard/router"
	"github.com/xy-planning-network/switchyard/store"
)

var testErr = errors.New("just testing")

func (suite *DBTestSuite) insertBooks() []int64 {
	suite.T().Helper()

	var ids []int64
	for _, vals := range []switchyard.Values{
		{"title": "Dune", "year": 1965},
		{"title": "Neuromancer", "year": 1984},
		{"title": "The Dispossessed", "year": 1974},
	} {
		id, err := suite.db.Table("books").Insert(vals)
		suite.Require().Nil(err)
		ids = append(ids, id)
	}

	return ids
}

func (suite *DBTestSuite) TestMigrateUpSkipsRanMigrations() {
	// Act
	err := store.MigrateUp(suite.db.DB(), "public", suite.migrations)

	// Assert
	suite.Require().Nil(err)

	count, err := suite.db.Table("migrations").Count()
	suite.Require().Nil(err)
	suite.Require().Equal(int64(1), count)
}

func (suite *DBTestSuite) TestCount() {
	// Arrange
	_ = suite.insertBooks()

	// Act
	count, err := suite.db.Table("books").Count()

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(int64(3), count)

	// Act
	count, err = suite.db.Table("books").Filter(switchyard.Where("year > ?", 1970)).Count()

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(int64(2), count)

	// Act
	count, err = suite.db.Table("books").Filter(switchyard.Where("id = ?", 1, 2)).Count()

	// Assert
	suite.Require().ErrorIs(err, switchyard.ErrNotValid)
	suite.Require().Zero(count)
}

func (suite *DBTestSuite) TestInsert() {
	// Arrange + Act
	first, err := suite.db.Table("shelves").Insert(switchyard.Values{"label": "fiction"})

	// Assert
	suite.Require().Nil(err)
	suite.Require().NotZero(first)

	// Act
	second, err := suite.db.Table("shelves").Insert(switchyard.Values{"label": "poetry"})

	// Assert
	suite.Require().Nil(err)
	suite.Require().Greater(second, first)

	for _, tc := range []struct {
		name     string
		db       *store.DB
		values   switchyard.Values
		expected error
	}{
		{"no-table", suite.db, switchyard.Values{"label": "essays"}, switchyard.ErrMissingData},
		{"no-values", suite.db.Table("shelves"), switchyard.Values{}, switchyard.ErrMissingData},
		{"unique", suite.db.Table("shelves"), switchyard.Values{"label": "fiction"}, switchyard.ErrExists},
		{"not-null", suite.db.Table("books"), switchyard.Values{"year": 2000}, switchyard.ErrMissingData},
		{"foreign-key", suite.db.Table("books"), switchyard.Values{"title": "x", "shelf_id": 999}, switchyard.ErrNotValid},
		{"unknown-column", suite.db.Table("books"), switchyard.Values{"pages": 10}, switchyard.ErrNotValid},
	} {
		suite.Run(tc.name, func() {
			// Act
			id, err := tc.db.Insert(tc.values)

			// Assert
			suite.Require().ErrorIs(err, tc.expected)
			suite.Require().Zero(id)
		})
	}
}

func (suite *DBTestSuite) TestInsertCarriesError() {
	// Arrange
	db := suite.db.Table("books")
	db.DB().Error = testErr

	// Act
	id, err := db.Insert(switchyard.Values{"title": "Solaris"})

	// Assert
	suite.Require().ErrorIs(err, testErr)
	suite.Require().Zero(id)
}

func (suite *DBTestSuite) TestRows() {
	// Arrange
	ids := suite.insertBooks()

	// Act
	rows, err := suite.db.
		Table("books").
		Select("id", "title").
		Filter(switchyard.Where("year > ?", 1970)).
		Order("year DESC").
		Rows()

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal([]string{"id", "title"}, rows.Columns())

	actual, err := router.Collect(rows)
	suite.Require().Nil(err)
	suite.Require().Equal([]switchyard.Values{
		{"id": ids[1], "title": "Neuromancer"},
		{"id": ids[2], "title": "The Dispossessed"},
	}, actual)
	suite.Require().False(rows.Next())
}

func (suite *DBTestSuite) TestRowsValuesBeforeNext() {
	// Arrange
	_ = suite.insertBooks()
	rows, err := suite.db.Table("books").Rows()
	suite.Require().Nil(err)
	defer rows.Close()

	// Act
	vals, err := rows.Values()

	// Assert
	suite.Require().ErrorIs(err, switchyard.ErrNotFound)
	suite.Require().Nil(vals)
}

func (suite *DBTestSuite) TestRowsNotValid() {
	// Act
	rows, err := suite.db.Table("books").Select("pages").Rows()

	// Assert
	suite.Require().ErrorIs(err, switchyard.ErrNotValid)
	suite.Require().Nil(rows)
}

func (suite *DBTestSuite) TestUpdate() {
	// Arrange
	ids := suite.insertBooks()

	// Act
	n, err := suite.db.
		Table("books").
		Filter(switchyard.Where("id = ?", ids[0])).
		Update(switchyard.Values{"title": "Dune Messiah", "year": 1969})

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(int64(1), n)

	count, err := suite.db.Table("books").Where("title = ? AND year = ?", "Dune Messiah", 1969).Count()
	suite.Require().Nil(err)
	suite.Require().Equal(int64(1), count)

	// Act
	n, err = suite.db.Table("books").Where("id = ?", ids[2]+100).Update(switchyard.Values{"year": 1})

	// Assert
	suite.Require().Nil(err)
	suite.Require().Zero(n)

	// Act
	n, err = suite.db.Table("books").Update(switchyard.Values{"year": 2000})

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(int64(3), n)

	// Act
	n, err = suite.db.Table("books").Update(nil)

	// Assert
	suite.Require().ErrorIs(err, switchyard.ErrMissingData)
	suite.Require().Zero(n)
}

func (suite *DBTestSuite) TestDelete() {
	// Arrange
	ids := suite.insertBooks()

	// Act
	n, err := suite.db.Table("books").Filter(switchyard.Where("id = ?", ids[0])).Delete()

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(int64(1), n)

	// Act
	n, err = suite.db.Table("books").Delete()

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(int64(2), n)

	// Act
	n, err = suite.db.Delete()

	// Assert
	suite.Require().ErrorIs(err, switchyard.ErrMissingData)
	suite.Require().Zero(n)
}

func (suite *DBTestSuite) TestLimitOffset() {
	// Arrange
	ids := suite.insertBooks()

	// Act
	rows, err := suite.db.Table("books").Select("id").Order("id").Limit(1).Offset(1).Rows()
	suite.Require().Nil(err)
	actual, err := router.Collect(rows)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal([]switchyard.Values{{"id": ids[1]}}, actual)

	// Act
	_, err = suite.db.Table("books").Limit(-1).Rows()

	// Assert
	suite.Require().ErrorIs(err, switchyard.ErrNotValid)

	// Act
	_, err = suite.db.Table("books").Offset(-1).Rows()

	// Assert
	suite.Require().ErrorIs(err, switchyard.ErrNotValid)
}

func (suite *DBTestSuite) TestTransaction() {
	// Arrange + Act
	err := suite.db.Transaction(func(tx *store.DB) error {
		if _, err := tx.Table("books").Insert(switchyard.Values{"title": "Kindred"}); err != nil {
			return err
		}
		return testErr
	})

	// Assert
	suite.Require().ErrorIs(err, testErr)

	count, err := suite.db.Table("books").Count()
	suite.Require().Nil(err)
	suite.Require().Zero(count)

	// Arrange
	tx := suite.db.Begin()
	_, err = tx.Table("books").Insert(switchyard.Values{"title": "Kindred"})
	suite.Require().Nil(err)

	// Act
	err = tx.Commit()

	// Assert
	suite.Require().Nil(err)

	count, err = suite.db.Table("books").Count()
	suite.Require().Nil(err)
	suite.Require().Equal(int64(1), count)
}
