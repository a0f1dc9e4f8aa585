package users

// User is one record of the users endpoint. The shape is assumed, not validated.
type User struct {
	Name     string
	Username string
	Email    string
	Company  *Company
	Address  *Address
}

// Company is the optional employer block of a user.
type Company struct {
	Name string
}

// Address is the optional address block of a user. Only the city is shown.
type Address struct {
	City string
}
