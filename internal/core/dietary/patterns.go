package dietary

// 內建規則資料。替代食材本身不得包含它所取代的詞。

type subTable map[string][]Substitution

func (t subTable) add(list []Substitution, items ...string) subTable {
	for _, item := range items {
		t[item] = append(t[item], list...)
	}
	return t
}

func mergeTables(tables ...subTable) map[string][]Substitution {
	out := make(map[string][]Substitution)
	for _, t := range tables {
		for k, v := range t {
			out[k] = append(out[k], v...)
		}
	}
	return out
}

func sub(ingredient string, cultures ...string) Substitution {
	return Substitution{Ingredient: ingredient, Cultures: cultures}
}

func subNote(ingredient, note string, cultures ...string) Substitution {
	return Substitution{Ingredient: ingredient, Cultures: cultures, Note: note}
}

func join(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

var (
	eastAsian     = []string{"Chinese", "Japanese", "Korean", "Thai", "Vietnamese"}
	mediterranean = []string{"Italian", "Greek", "Spanish", "Middle Eastern"}

	landMeat = []string{
		"beef", "steak", "veal", "pork", "bacon", "ham", "sausage", "pepperoni",
		"prosciutto", "salami", "chorizo", "pancetta", "chicken", "turkey", "duck",
		"lamb", "mutton", "venison", "meat", "lard", "gelatin",
	}
	fish = []string{
		"fish", "salmon", "tuna", "cod", "tilapia", "sardine", "mackerel", "anchov", "trout",
	}
	shellfish = []string{
		"shrimp", "prawn", "crab", "lobster", "clam", "oyster", "mussel", "scallop",
		"squid", "octopus", "calamari", "crawfish", "crayfish",
	}
	dairy = []string{
		"milk", "cheese", "butter", "cream", "yogurt", "yoghurt", "ghee", "whey",
		"parmesan", "parmigiana", "mozzarella", "ricotta", "feta", "paneer", "cheddar",
	}
	eggs         = []string{"egg", "mayonnaise", "meringue"}
	alcohol      = []string{"wine", "champagne", "beer", "rum", "brandy", "sake", "mirin", "liqueur", "bourbon", "vodka", "alcohol"}
	nonKosherSea = []string{"catfish", "eel"}

	meatSafe = []string{
		"meatless", "chicken of the woods", "oyster mushroom", "plant-based meat",
		"vegan sausage", "veggie sausage", "vegan bacon", "coconut bacon", "agar gelatin",
		"champagne", "graham", "chamomile", "beefsteak tomato",
	}
	dairySafe = []string{
		"oat milk", "soy milk", "almond milk", "coconut milk", "rice milk", "cashew milk",
		"peanut butter", "almond butter", "cocoa butter", "nut butter", "seed butter",
		"coconut cream", "cashew cream", "coconut yogurt", "soy yogurt", "butternut",
		"cream of tartar", "dairy-free", "dairy free", "butterhead", "butter bean",
	}
	eggSafe = []string{"eggplant", "eggless", "egg-free", "egg free", "veggie"}
)

var (
	meatSubs = subTable{}.
		add([]Substitution{sub("mushrooms"), sub("tofu", eastAsian...), sub("seitan", "Chinese"),
			sub("lentils", "Indian", "Middle Eastern", "Greek"), sub("black beans", "Mexican", "Brazilian"),
			sub("tempeh", "Indonesian"), sub("jackfruit")}, "beef", "steak", "veal", "venison").
		add([]Substitution{sub("tofu", eastAsian...), sub("chickpeas", "Indian", "Middle Eastern"),
			sub("eggplant", "Italian", "Greek"), sub("cauliflower"), sub("paneer", "Indian"),
			sub("king oyster mushrooms", "Chinese", "Korean")}, "chicken", "turkey").
		add([]Substitution{sub("jackfruit", "Mexican", "American"), sub("shiitake mushrooms", "Chinese", "Japanese"),
			sub("tofu", eastAsian...), sub("smoked tempeh")}, "pork").
		add([]Substitution{sub("smoked mushrooms"), sub("smoked tempeh")}, "bacon", "pancetta").
		add([]Substitution{sub("smoked tofu")}, "ham").
		add([]Substitution{sub("spiced lentils"), sub("white beans", "Italian")}, "sausage").
		add([]Substitution{sub("roasted red peppers", mediterranean...), sub("smoked paprika chickpeas", "Spanish", "Mexican")},
			"pepperoni", "prosciutto", "salami", "chorizo").
		add([]Substitution{sub("chickpeas", "Middle Eastern", "Indian", "Greek"), sub("eggplant", "Middle Eastern", "Greek"),
			sub("lentils")}, "lamb", "mutton").
		add([]Substitution{sub("glazed tofu", "Chinese"), sub("mushrooms")}, "duck").
		add([]Substitution{sub("lentils"), sub("crumbled tofu"), sub("walnut crumble")}, "meat").
		add([]Substitution{subNote("agar agar", "sets firmer than gelatin")}, "gelatin").
		add([]Substitution{sub("vegetable oil")}, "lard")

	seafoodSubs = subTable{}.
		add([]Substitution{sub("tofu", eastAsian...), sub("hearts of palm"), sub("banana blossom", "Thai", "Vietnamese"),
			sub("chickpeas")}, fish...).
		add([]Substitution{subNote("capers", "brings the briny note", "Italian", "Spanish", "Greek"), sub("miso", "Japanese")}, "anchov").
		add([]Substitution{sub("king oyster mushrooms"), sub("tofu", eastAsian...), sub("hearts of palm")}, shellfish...)

	dairySubs = subTable{}.
		add([]Substitution{sub("oat milk"), sub("soy milk", eastAsian...), sub("coconut milk", "Thai", "Indian", "Vietnamese", "Caribbean")}, "milk").
		add([]Substitution{sub("nutritional yeast"), sub("cashew cream"), sub("avocado", "Mexican")}, "cheese", "cheddar").
		add([]Substitution{sub("nutritional yeast"), sub("toasted breadcrumbs", "Italian"), sub("cashew cream")},
			"parmesan", "parmigiana", "mozzarella", "ricotta").
		add([]Substitution{sub("marinated tofu", "Greek"), sub("nutritional yeast")}, "feta").
		add([]Substitution{sub("tofu", "Indian"), sub("chickpeas")}, "paneer").
		add([]Substitution{sub("olive oil", mediterranean...), sub("coconut oil", "Indian", "Thai"), sub("vegetable oil")}, "butter", "ghee").
		add([]Substitution{sub("coconut cream"), sub("cashew cream")}, "cream").
		add([]Substitution{sub("coconut yogurt"), sub("silken tofu")}, "yogurt", "yoghurt").
		add([]Substitution{sub("pea protein")}, "whey")

	eggSubs = subTable{}.
		add([]Substitution{sub("silken tofu", "Chinese", "Japanese", "Korean"), sub("chickpea flour", "Indian"),
			subNote("aquafaba", "whip to replace whites")}, "egg").
		add([]Substitution{sub("tahini sauce", "Middle Eastern", "Greek"), sub("avocado sauce", "Mexican")}, "mayonnaise").
		add([]Substitution{sub("aquafaba")}, "meringue")

	honeySubs = subTable{}.add([]Substitution{sub("maple syrup"), sub("agave")}, "honey")

	pastaSubs = []Substitution{sub("rice noodles", "Chinese", "Thai", "Vietnamese"), sub("polenta", "Italian"),
		sub("zucchini ribbons"), sub("gluten-free pasta", "Italian")}

	glutenSubs = subTable{}.
		add(pastaSubs, "pasta", "spaghetti", "linguine", "fettuccine", "penne", "lasagna", "macaroni").
		add([]Substitution{sub("rice noodles", eastAsian...), sub("glass noodles", "Korean", "Chinese"),
			sub("zucchini ribbons"), sub("spiralized vegetables")}, "noodle", "ramen", "udon").
		add([]Substitution{sub("corn tortillas", "Mexican"), sub("rice cakes", "Japanese", "Korean"),
			sub("lettuce wraps", "Chinese", "Thai", "Vietnamese"), sub("socca", "French")},
			"bread", "pita", "naan", "croissant", "bagel").
		add([]Substitution{sub("corn tortillas", "Mexican")}, "tortilla").
		add([]Substitution{sub("rice flour", eastAsian...), sub("chickpea flour", "Indian", "Middle Eastern"), sub("almond flour")}, "flour").
		add([]Substitution{sub("tamari", "Chinese", "Japanese", "Korean"), sub("coconut aminos")}, "soy sauce").
		add([]Substitution{sub("quinoa"), sub("millet"), sub("rice", "Middle Eastern", "Indian")},
			"couscous", "bulgur", "barley", "farro", "semolina", "wheat", "rye").
		add([]Substitution{sub("toasted rice crumbs"), sub("crushed nuts")}, "breadcrumb", "panko", "crouton").
		add([]Substitution{sub("rice paper rolls", "Vietnamese"), sub("lettuce wraps")}, "dumpling").
		add([]Substitution{sub("sparkling water")}, "beer").
		add([]Substitution{sub("tofu"), sub("tempeh")}, "seitan").
		add([]Substitution{sub("rice crackers", "Japanese"), sub("cauliflower crust")}, "pastry", "cracker", "pizza")

	porkSubs = subTable{}.
		add([]Substitution{sub("lamb", "Middle Eastern", "Indian", "Greek"), sub("chicken"), sub("beef")}, "pork").
		add([]Substitution{sub("smoked turkey"), sub("smoked beef")}, "bacon", "ham", "pancetta").
		add([]Substitution{sub("beef pastrami"), sub("smoked turkey"), sub("sujuk", "Middle Eastern", "Turkish")},
			"prosciutto", "pepperoni", "salami", "chorizo").
		add([]Substitution{sub("ghee", "Indian", "Middle Eastern"), sub("vegetable oil")}, "lard").
		add([]Substitution{sub("agar agar")}, "gelatin")

	alcoholSubs = subTable{}.
		add([]Substitution{sub("grape juice"), sub("pomegranate molasses", "Middle Eastern"), sub("vinegar")}, "wine").
		add([]Substitution{sub("stock")}, "beer").
		add([]Substitution{sub("sparkling grape juice")}, "champagne").
		add([]Substitution{sub("apple juice")}, "rum", "brandy", "liqueur", "bourbon", "vodka", "alcohol").
		add([]Substitution{subNote("rice vinegar with sugar", "mirin and sake replacement", "Japanese")}, "sake", "mirin")

	kosherSeaSubs = subTable{}.
		add([]Substitution{sub("white fish"), sub("salmon"), sub("hearts of palm")}, shellfish...).
		add([]Substitution{sub("salmon"), sub("trout")}, nonKosherSea...)

	nutSubs = subTable{}.
		add([]Substitution{sub("sunflower seeds"), sub("toasted sesame", "Chinese", "Korean", "Japanese")}, "peanut").
		add([]Substitution{sub("pumpkin seeds", "Mexican"), sub("sunflower seeds"), sub("toasted oats")},
			"almond", "cashew", "walnut", "pecan", "pistachio", "hazelnut", "macadamia", "brazil nut", "nuts").
		add([]Substitution{sub("toasted sunflower seeds")}, "pine nut").
		add([]Substitution{sub("sunflower seed butter")}, "nut butter", "praline", "marzipan", "nutella")

	pescatarianSubs = subTable{}.
		add([]Substitution{sub("salmon"), sub("tuna", "Japanese", "Mediterranean"), sub("mushrooms")},
			"beef", "steak", "veal", "venison", "lamb", "mutton", "meat").
		add([]Substitution{sub("white fish"), sub("shrimp", eastAsian...), sub("tofu")}, "chicken", "turkey", "duck").
		add([]Substitution{sub("shrimp", "Chinese", "Thai"), sub("smoked salmon")}, "pork", "bacon", "ham", "pancetta").
		add([]Substitution{sub("smoked salmon"), sub("roasted red peppers")}, "sausage", "pepperoni", "prosciutto", "salami", "chorizo").
		add([]Substitution{sub("agar agar")}, "gelatin").
		add([]Substitution{sub("olive oil")}, "lard")

	ketoSubs = subTable{}.
		add([]Substitution{sub("shredded cabbage", eastAsian...), sub("cauliflower"), sub("cauliflower rice")}, "rice").
		add([]Substitution{sub("zucchini ribbons"), sub("shirataki", "Japanese"), sub("spaghetti squash")},
			"pasta", "spaghetti", "noodle").
		add([]Substitution{sub("lettuce wraps"), sub("cloud bread")}, "bread", "tortilla", "bagel").
		add([]Substitution{sub("cauliflower"), sub("turnips", "French"), sub("radishes")}, "potato", "fries").
		add([]Substitution{sub("almond flour"), sub("ground flaxseed")}, "flour").
		add([]Substitution{sub("chia pudding"), sub("hemp hearts")}, "oats", "oatmeal", "cereal").
		add([]Substitution{sub("cauliflower")}, "corn", "quinoa", "couscous").
		add([]Substitution{sub("stevia"), sub("monk fruit"), sub("erythritol")}, "sugar", "honey", "syrup").
		add([]Substitution{sub("mushrooms"), sub("zucchini")}, "lentils", "beans", "chickpeas")

	shellfishSubs = subTable{}.
		add([]Substitution{sub("white fish"), sub("king oyster mushrooms"), sub("chicken")}, shellfish...)
)

func builtinPatterns() []ConflictPattern {
	return []ConflictPattern{
		{
			Restriction:            "vegetarian",
			Aliases:                []string{"veggie", "veg", "lacto-ovo", "lacto ovo vegetarian", "ovo-lacto"},
			ConflictingIngredients: join(landMeat, fish, shellfish),
			SafeTerms:              meatSafe,
			Substitutions:          mergeTables(meatSubs, seafoodSubs),
			Fallback:               []Substitution{sub("mushrooms"), sub("tofu"), sub("seasonal vegetables")},
		},
		{
			Restriction:            "vegan",
			Aliases:                []string{"plant-based", "plant based", "strict vegetarian"},
			ConflictingIngredients: join(landMeat, fish, shellfish, dairy, eggs, []string{"honey"}),
			SafeTerms:              join(meatSafe, dairySafe, eggSafe, []string{"honeydew"}),
			Substitutions:          mergeTables(meatSubs, seafoodSubs, dairySubs, eggSubs, honeySubs),
			Fallback:               []Substitution{sub("mushrooms"), sub("tofu"), sub("nutritional yeast"), sub("seasonal vegetables")},
		},
		{
			Restriction: "gluten-free",
			Aliases:     []string{"gluten free", "gf", "celiac", "coeliac", "no gluten", "wheat-free"},
			ConflictingIngredients: []string{
				"wheat", "flour", "bread", "pasta", "spaghetti", "linguine", "fettuccine", "penne",
				"lasagna", "macaroni", "noodle", "ramen", "udon", "barley", "rye", "couscous", "bulgur",
				"farro", "semolina", "seitan", "soy sauce", "breadcrumb", "panko", "crouton", "pita",
				"naan", "croissant", "bagel", "tortilla", "dumpling", "beer", "pastry", "cracker", "pizza",
			},
			SafeTerms: []string{
				"gluten-free", "gluten free", "rice flour", "almond flour", "coconut flour", "chickpea flour",
				"corn flour", "rice noodle", "glass noodle", "corn tortilla", "rice crumbs", "rice paper",
				"rice crackers", "cauliflower crust", "root beer", "ginger beer", "buckwheat", "breadfruit",
				"zucchini noodle", "shirataki noodle", "kelp noodle", "pitaya",
			},
			Substitutions: mergeTables(glutenSubs),
			Fallback:      []Substitution{sub("rice"), sub("potatoes"), sub("quinoa")},
		},
		{
			Restriction:            "dairy-free",
			Aliases:                []string{"dairy free", "lactose-free", "lactose free", "lactose intolerant", "no dairy", "non-dairy"},
			ConflictingIngredients: dairy,
			SafeTerms:              dairySafe,
			Substitutions:          mergeTables(dairySubs),
			Fallback:               []Substitution{sub("olive oil"), sub("nutritional yeast"), sub("coconut cream")},
		},
		{
			Restriction:            "egg-free",
			Aliases:                []string{"egg free", "no eggs", "egg allergy"},
			ConflictingIngredients: eggs,
			SafeTerms:              eggSafe,
			Substitutions:          mergeTables(eggSubs),
			Fallback:               []Substitution{sub("silken tofu"), sub("aquafaba")},
		},
		{
			Restriction: "nut-free",
			Aliases:     []string{"nut free", "tree-nut-free", "peanut-free", "nut allergy", "no nuts"},
			ConflictingIngredients: []string{
				"peanut", "almond", "cashew", "walnut", "pecan", "pistachio", "hazelnut", "macadamia",
				"pine nut", "brazil nut", "nuts", "nut butter", "praline", "marzipan", "nutella",
			},
			SafeTerms:     []string{"nutmeg", "coconut", "butternut", "water chestnut", "nut-free", "nut free", "doughnut", "donut"},
			Substitutions: mergeTables(nutSubs),
			Fallback:      []Substitution{sub("sunflower seeds"), sub("pumpkin seeds")},
		},
		{
			Restriction:            "halal",
			ConflictingIngredients: join([]string{"pork", "bacon", "ham", "lard", "gelatin", "prosciutto", "pepperoni", "salami", "chorizo", "pancetta"}, alcohol),
			SafeTerms: []string{
				"halal gelatin", "turkey bacon", "beef bacon", "hamburger", "beef pepperoni", "beef salami",
				"halal chorizo", "root beer", "ginger beer", "wine vinegar", "non-alcoholic", "alcohol-free",
				"rump", "graham", "chamomile", "crumb", "drum", "collard",
			},
			Substitutions: mergeTables(porkSubs, alcoholSubs),
			Fallback:      []Substitution{sub("chicken"), sub("lamb"), sub("seasonal vegetables")},
		},
		{
			Restriction:            "kosher",
			ConflictingIngredients: join([]string{"pork", "bacon", "ham", "lard", "prosciutto", "pepperoni", "pancetta"}, shellfish, nonKosherSea),
			SafeTerms: []string{
				"turkey bacon", "beef bacon", "hamburger", "hamantaschen", "oyster mushroom", "kosher gelatin",
				"graham", "chamomile", "champagne", "peel", "wheel", "steel",
			},
			Substitutions: mergeTables(porkSubs, kosherSeaSubs),
			Fallback:      []Substitution{sub("chicken"), sub("beef"), sub("white fish")},
		},
		{
			Restriction: "keto",
			Aliases:     []string{"ketogenic", "low-carb", "low carb"},
			ConflictingIngredients: []string{
				"sugar", "rice", "pasta", "spaghetti", "noodle", "bread", "potato", "fries", "flour",
				"oats", "oatmeal", "corn", "tortilla", "honey", "syrup", "quinoa", "couscous", "bagel",
				"cereal", "lentils", "beans", "chickpeas",
			},
			SafeTerms: []string{
				"cauliflower rice", "almond flour", "coconut flour", "sugar-free", "sugar free",
				"zucchini noodle", "shirataki noodle", "green beans", "rice vinegar", "spaghetti squash",
				"cloud bread", "cornish", "sugar snap", "peppercorn", "acorn", "cornichon", "licorice",
				"honeydew", "goat", "vanilla bean", "coffee bean", "cocoa bean",
			},
			Substitutions: mergeTables(ketoSubs),
			Fallback:      []Substitution{sub("cauliflower"), sub("zucchini"), sub("leafy greens")},
		},
		{
			Restriction:            "pescatarian",
			Aliases:                []string{"pescetarian", "pesco-vegetarian"},
			ConflictingIngredients: landMeat,
			SafeTerms:              meatSafe,
			Substitutions:          mergeTables(pescatarianSubs),
			Fallback:               []Substitution{sub("white fish"), sub("salmon"), sub("mushrooms")},
		},
		{
			Restriction:            "shellfish-free",
			Aliases:                []string{"shellfish free", "no shellfish", "shellfish allergy"},
			ConflictingIngredients: shellfish,
			SafeTerms:              []string{"oyster mushroom"},
			Substitutions:          mergeTables(shellfishSubs),
			Fallback:               []Substitution{sub("white fish"), sub("chicken")},
		},
	}
}
