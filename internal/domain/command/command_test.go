package command_test

import (
	"testing"

	"github.com/okian/obituary/internal/domain/command"
	"github.com/okian/obituary/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given trigger text", t, func() {
		Convey("When it is an add request", func() {
			So(command.Parse("ADMIN_REQUEST: Maya Angelou"), ShouldResemble, command.Add{Role: model.RoleAdmin, Name: "Maya Angelou"})
			So(command.Parse("USER_REQUEST:Amy Winehouse  "), ShouldResemble, command.Add{Role: model.RoleUser, Name: "Amy Winehouse"})
		})

		Convey("When approve prefixes share a stem", func() {
			So(command.Parse("APPROVE: Prince"), ShouldResemble, command.Approve{Name: "Prince"})
			So(command.Parse("APPROVE_BULK: A | B|  |C"), ShouldResemble, command.ApproveBulk{Names: []string{"A", "B", "C"}})
			So(command.Parse("APPROVE_ALL"), ShouldResemble, command.ApproveAll{})
			So(command.Parse("approve_all:"), ShouldResemble, command.ApproveAll{})
		})

		Convey("When it is a delete", func() {
			So(command.Parse("DELETE: Alan Rickman"), ShouldResemble, command.Delete{Name: "Alan Rickman"})
			So(command.Parse("DELETE_BULK: X|X|Y"), ShouldResemble, command.DeleteBulk{Names: []string{"X", "X", "Y"}})
		})

		Convey("When it is a view", func() {
			So(command.Parse("VIEW: Maya Angelou | 42"), ShouldResemble, command.View{Name: "Maya Angelou", Seconds: 42})
			So(command.Parse("VIEW: Maya Angelou | soon"), ShouldResemble, command.View{Name: "Maya Angelou", Seconds: 0})
			So(command.Parse("VIEW: Maya Angelou | -3"), ShouldResemble, command.View{Name: "Maya Angelou", Seconds: 0})
			So(command.Parse("VIEW: Maya Angelou"), ShouldResemble, command.View{Name: "Maya Angelou", Seconds: 0})
		})

		Convey("When the text is not a usable command", func() {
			for _, raw := range []string{"", "hello world", "REQUEST: Old Prefix", "ADMIN_REQUEST:", "DELETE_BULK: | ", "VIEW: | 10", "APPROVE:"} {
				cmd := command.Parse(raw)
				So(cmd.Kind(), ShouldEqual, "unknown")
			}
		})
	})
}
