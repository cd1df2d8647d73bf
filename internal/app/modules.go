package app

import (
	"github.com/keelproject/keel/components/clock"
	"github.com/keelproject/keel/components/envsource"
	"github.com/keelproject/keel/components/httpclient"
	"github.com/keelproject/keel/components/idgen"
	"github.com/keelproject/keel/components/printer"
	"github.com/keelproject/keel/internal/catalog"
)

// coreModules is the definitive list of component modules compiled into the
// keel binary.
var coreModules = []catalog.Module{
	&clock.Module{},
	&envsource.Module{},
	&httpclient.Module{},
	&idgen.Module{},
	&printer.Module{},
}
