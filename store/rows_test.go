package store_test

import (
	"github.com/xy-planning-network/switchyard"
	"github.com/xy-planning-network/switchyard/notify"
	"github.com/xy-planning-network/switchyard/router"
)

func (suite *DBTestSuite) TestRowsNotification() {
	// Arrange
	_ = suite.insertBooks()
	books := switchyard.NewURI("test.switchyard", "books")
	resolver := notify.NewResolver()

	rows, err := suite.db.Table("books").Rows()
	suite.Require().Nil(err)

	var heard []switchyard.URI
	rows.OnChange(func(uri switchyard.URI) { heard = append(heard, uri) })

	// Act
	rows.SetNotificationURI(resolver, books)

	// Assert
	suite.Require().Equal(1, resolver.Len())
	suite.Require().False(rows.Stale())

	// Act
	resolver.NotifyChange(switchyard.NewURI("test.switchyard", "authors"))

	// Assert
	suite.Require().False(rows.Stale())
	suite.Require().Empty(heard)

	// Act
	resolver.NotifyChange(books.AppendID(2))

	// Assert
	suite.Require().True(rows.Stale())
	suite.Require().Len(heard, 1)
	suite.Require().True(heard[0].Equal(books.AppendID(2)))

	// Act
	suite.Require().Nil(rows.Close())
	resolver.NotifyChange(books)

	// Assert
	suite.Require().Zero(resolver.Len())
	suite.Require().Len(heard, 1)
	suite.Require().Nil(rows.Close())
}

func (suite *DBTestSuite) TestRowsExhausted() {
	// Arrange
	ids := suite.insertBooks()
	books := switchyard.NewURI("test.switchyard", "books")
	resolver := notify.NewResolver()

	rows, err := suite.db.Table("books").Rows()
	suite.Require().Nil(err)

	var heard []switchyard.URI
	rows.OnChange(func(uri switchyard.URI) { heard = append(heard, uri) })
	rows.SetNotificationURI(resolver, books)
	suite.Require().Equal(1, resolver.Len())

	// Act
	var n int
	for rows.Next() {
		n++
	}
	resolver.NotifyChange(books)

	// Assert
	suite.Require().Nil(rows.Err())
	suite.Require().Equal(len(ids), n)
	suite.Require().Zero(resolver.Len())
	suite.Require().False(rows.Stale())
	suite.Require().Empty(heard)
	suite.Require().False(rows.Next())
	suite.Require().Nil(rows.Close())
}

func (suite *DBTestSuite) TestRowsRebind() {
	// Arrange
	first, second := notify.NewResolver(), notify.NewResolver()
	books := switchyard.NewURI("test.switchyard", "books")

	rows, err := suite.db.Table("books").Rows()
	suite.Require().Nil(err)
	defer rows.Close()
	rows.SetNotificationURI(first, books)

	// Act
	rows.SetNotificationURI(second, books)

	// Assert
	suite.Require().Zero(first.Len())
	suite.Require().Equal(1, second.Len())
}

func (suite *DBTestSuite) TestRowsPlainNotifier() {
	// Arrange
	var notified bool
	books := switchyard.NewURI("test.switchyard", "books")
	rows, err := suite.db.Table("books").Rows()
	suite.Require().Nil(err)
	defer rows.Close()

	// Act
	rows.SetNotificationURI(router.NotifierFunc(func(switchyard.URI) { notified = true }), books)

	// Assert
	suite.Require().False(rows.Stale())
	suite.Require().False(notified)
}
