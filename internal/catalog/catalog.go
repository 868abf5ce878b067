// Package catalog ships the built-in templates and section layouts the
// editor offers before any AI content exists.
package catalog

import "pagecraft/internal/builder"

// Template returns the built-in template with the given id, or false.
func Template(id string) (builder.Template, bool) {
	for _, t := range Templates() {
		if t.ID == id {
			return t, true
		}
	}
	return builder.Template{}, false
}

// Layout returns the built-in layout with the given id, or false.
func Layout(id string) (builder.Layout, bool) {
	for _, l := range Layouts() {
		if l.ID == id {
			return l, true
		}
	}
	return builder.Layout{}, false
}

// Templates returns fresh copies of the built-in template catalog.
// Component ids here are relative; loading a template re-mints them.
func Templates() []builder.Template {
	return []builder.Template{
		{
			ID:          "saas-startup",
			Name:        "SaaS Startup",
			Category:    builder.CategorySaaS,
			Thumbnail:   "https://images.pexels.com/photos/3184306/pexels-photo-3184306.jpeg?auto=compress&cs=tinysrgb&w=400",
			Description: "Modern SaaS landing page with hero, features, and pricing",
			Components: []builder.Component{
				{
					ID:   "hero-1",
					Type: builder.ComponentHero,
					Content: map[string]any{
						"title":      "Build Better Software Faster",
						"subtitle":   "The complete development platform for teams that ship",
						"buttonText": "Start Free Trial",
						"image":      "https://images.pexels.com/photos/3184306/pexels-photo-3184306.jpeg?auto=compress&cs=tinysrgb&w=800",
					},
					Styles: map[string]any{
						"backgroundColor": "#F8FAFC",
						"textColor":       "#1E293B",
						"buttonColor":     "#3B82F6",
						"padding":         60,
					},
					Size: builder.Size{Width: builder.Full, Height: builder.PxDimension(600)},
				},
				{
					ID:   "feature-1",
					Type: builder.ComponentFeature,
					Content: map[string]any{
						"title":       "Ship in minutes",
						"description": "Zero-config deployments straight from your repository",
						"icon":        "rocket",
					},
					Styles: map[string]any{
						"backgroundColor": "#FFFFFF",
						"textColor":       "#1E293B",
						"padding":         40,
					},
					Position: builder.Position{X: 40, Y: 640},
					Size:     builder.Size{Width: builder.PxDimension(350), Height: builder.PxDimension(250)},
				},
			},
		},
		{
			ID:          "business-agency",
			Name:        "Business Agency",
			Category:    builder.CategoryBusiness,
			Thumbnail:   "https://images.pexels.com/photos/3184338/pexels-photo-3184338.jpeg?auto=compress&cs=tinysrgb&w=400",
			Description: "Professional agency website with portfolio showcase",
			Components: []builder.Component{
				{
					ID:   "hero-2",
					Type: builder.ComponentHero,
					Content: map[string]any{
						"title":      "Strategic Digital Solutions",
						"subtitle":   "We help businesses grow through innovative digital strategies",
						"buttonText": "Get Started",
						"image":      "https://images.pexels.com/photos/3184338/pexels-photo-3184338.jpeg?auto=compress&cs=tinysrgb&w=800",
					},
					Styles: map[string]any{
						"backgroundColor": "#0F172A",
						"textColor":       "#FFFFFF",
						"buttonColor":     "#F97316",
						"padding":         60,
					},
					Size: builder.Size{Width: builder.Full, Height: builder.PxDimension(600)},
				},
			},
		},
		{
			ID:          "ecommerce-store",
			Name:        "E-commerce Store",
			Category:    builder.CategoryEcommerce,
			Thumbnail:   "https://images.pexels.com/photos/3184291/pexels-photo-3184291.jpeg?auto=compress&cs=tinysrgb&w=400",
			Description: "Modern e-commerce landing page with product showcase",
			Components: []builder.Component{
				{
					ID:   "hero-3",
					Type: builder.ComponentHero,
					Content: map[string]any{
						"title":      "Premium Quality Products",
						"subtitle":   "Discover our curated collection of exceptional items",
						"buttonText": "Shop Now",
						"image":      "https://images.pexels.com/photos/3184291/pexels-photo-3184291.jpeg?auto=compress&cs=tinysrgb&w=800",
					},
					Styles: map[string]any{
						"backgroundColor": "#FEF3F2",
						"textColor":       "#7C2D12",
						"buttonColor":     "#DC2626",
						"padding":         60,
					},
					Size: builder.Size{Width: builder.Full, Height: builder.PxDimension(600)},
				},
			},
		},
	}
}

// Layouts returns fresh copies of the built-in section layouts.
func Layouts() []builder.Layout {
	return []builder.Layout{
		{
			ID:          "saas-standard",
			Name:        "SaaS Standard",
			Description: "Classic SaaS layout with hero, features, testimonials, and pricing",
			Category:    string(builder.CategorySaaS),
			Sections: []builder.Section{
				headerSection("#FFFFFF"),
				{
					ID:              "hero-section",
					Name:            "Hero Section",
					Type:            builder.SectionHero,
					Order:           1,
					Height:          builder.PxDimension(600),
					BackgroundColor: "#F8FAFC",
					Padding:         60,
					Components:      []string{},
					Constraints: builder.SectionConstraints{
						MaxComponents: 1,
						AllowedTypes:  []builder.ComponentType{builder.ComponentHero},
						Layout:        builder.LayoutFlex,
					},
				},
				{
					ID:              "features-section",
					Name:            "Features",
					Type:            builder.SectionFeatures,
					Order:           2,
					Height:          builder.Auto,
					BackgroundColor: "#FFFFFF",
					Padding:         80,
					Components:      []string{},
					Constraints: builder.SectionConstraints{
						MaxComponents: 6,
						AllowedTypes:  []builder.ComponentType{builder.ComponentFeature},
						Layout:        builder.LayoutGrid,
						Columns:       3,
					},
				},
				{
					ID:              "testimonials-section",
					Name:            "Testimonials",
					Type:            builder.SectionTestimonials,
					Order:           3,
					Height:          builder.Auto,
					BackgroundColor: "#F9FAFB",
					Padding:         80,
					Components:      []string{},
					Constraints: builder.SectionConstraints{
						MaxComponents: 3,
						AllowedTypes:  []builder.ComponentType{builder.ComponentTestimonial},
						Layout:        builder.LayoutGrid,
						Columns:       3,
					},
				},
				{
					ID:              "pricing-section",
					Name:            "Pricing",
					Type:            builder.SectionPricing,
					Order:           4,
					Height:          builder.Auto,
					BackgroundColor: "#FFFFFF",
					Padding:         80,
					Components:      []string{},
					Constraints: builder.SectionConstraints{
						MaxComponents: 4,
						AllowedTypes:  []builder.ComponentType{builder.ComponentPricing},
						Layout:        builder.LayoutGrid,
						Columns:       3,
					},
				},
				{
					ID:              "contact-section",
					Name:            "Contact",
					Type:            builder.SectionContact,
					Order:           5,
					Height:          builder.Auto,
					BackgroundColor: "#F8FAFC",
					Padding:         80,
					Components:      []string{},
					Constraints: builder.SectionConstraints{
						MaxComponents: 1,
						AllowedTypes:  []builder.ComponentType{builder.ComponentContact},
						Layout:        builder.LayoutFlex,
					},
				},
			},
			GlobalStyles: builder.GlobalStyles{
				FontFamily:      "Inter",
				PrimaryColor:    "#3B82F6",
				SecondaryColor:  "#64748B",
				BackgroundColor: "#FFFFFF",
			},
		},
		{
			ID:          "business-professional",
			Name:        "Business Professional",
			Description: "Professional business layout with services and team sections",
			Category:    string(builder.CategoryBusiness),
			Sections: []builder.Section{
				headerSection("#1E293B"),
				{
					ID:              "hero-section",
					Name:            "Hero Section",
					Type:            builder.SectionHero,
					Order:           1,
					Height:          builder.PxDimension(500),
					BackgroundColor: "#0F172A",
					Padding:         60,
					Components:      []string{},
					Constraints: builder.SectionConstraints{
						MaxComponents: 1,
						AllowedTypes:  []builder.ComponentType{builder.ComponentHero},
						Layout:        builder.LayoutFlex,
					},
				},
				{
					ID:              "services-section",
					Name:            "Services",
					Type:            builder.SectionFeatures,
					Order:           2,
					Height:          builder.Auto,
					BackgroundColor: "#FFFFFF",
					Padding:         80,
					Components:      []string{},
					Constraints: builder.SectionConstraints{
						MaxComponents: 4,
						AllowedTypes:  []builder.ComponentType{builder.ComponentFeature},
						Layout:        builder.LayoutGrid,
						Columns:       2,
					},
				},
				{
					ID:              "about-section",
					Name:            "About Us",
					Type:            builder.SectionCustom,
					Order:           3,
					Height:          builder.Auto,
					BackgroundColor: "#F1F5F9",
					Padding:         80,
					Components:      []string{},
					Constraints: builder.SectionConstraints{
						MaxComponents: 3,
						AllowedTypes:  []builder.ComponentType{builder.ComponentText, builder.ComponentImage},
						Layout:        builder.LayoutFlex,
					},
				},
				{
					ID:              "contact-section",
					Name:            "Contact",
					Type:            builder.SectionContact,
					Order:           4,
					Height:          builder.Auto,
					BackgroundColor: "#FFFFFF",
					Padding:         80,
					Components:      []string{},
					Constraints: builder.SectionConstraints{
						MaxComponents: 1,
						AllowedTypes:  []builder.ComponentType{builder.ComponentContact},
						Layout:        builder.LayoutFlex,
					},
				},
			},
			GlobalStyles: builder.GlobalStyles{
				FontFamily:      "Inter",
				PrimaryColor:    "#F97316",
				SecondaryColor:  "#64748B",
				BackgroundColor: "#FFFFFF",
			},
		},
		{
			ID:          "ecommerce-modern",
			Name:        "E-commerce Modern",
			Description: "Modern e-commerce layout with product showcase and features",
			Category:    string(builder.CategoryEcommerce),
			Sections: []builder.Section{
				headerSection("#FFFFFF"),
				{
					ID:              "hero-section",
					Name:            "Hero Banner",
					Type:            builder.SectionHero,
					Order:           1,
					Height:          builder.PxDimension(600),
					BackgroundColor: "#FEF3F2",
					Padding:         60,
					Components:      []string{},
					Constraints: builder.SectionConstraints{
						MaxComponents: 1,
						AllowedTypes:  []builder.ComponentType{builder.ComponentHero},
						Layout:        builder.LayoutFlex,
					},
				},
				{
					ID:              "products-section",
					Name:            "Featured Products",
					Type:            builder.SectionCustom,
					Order:           2,
					Height:          builder.Auto,
					BackgroundColor: "#FFFFFF",
					Padding:         80,
					Components:      []string{},
					Constraints: builder.SectionConstraints{
						MaxComponents: 8,
						AllowedTypes: []builder.ComponentType{
							builder.ComponentImage, builder.ComponentText, builder.ComponentButton,
						},
						Layout:  builder.LayoutGrid,
						Columns: 4,
					},
				},
				{
					ID:              "features-section",
					Name:            "Why Choose Us",
					Type:            builder.SectionFeatures,
					Order:           3,
					Height:          builder.Auto,
					BackgroundColor: "#F9FAFB",
					Padding:         80,
					Components:      []string{},
					Constraints: builder.SectionConstraints{
						MaxComponents: 3,
						AllowedTypes:  []builder.ComponentType{builder.ComponentFeature},
						Layout:        builder.LayoutGrid,
						Columns:       3,
					},
				},
				{
					ID:              "testimonials-section",
					Name:            "Customer Reviews",
					Type:            builder.SectionTestimonials,
					Order:           4,
					Height:          builder.Auto,
					BackgroundColor: "#FFFFFF",
					Padding:         80,
					Components:      []string{},
					Constraints: builder.SectionConstraints{
						MaxComponents: 3,
						AllowedTypes:  []builder.ComponentType{builder.ComponentTestimonial},
						Layout:        builder.LayoutGrid,
						Columns:       3,
					},
				},
			},
			GlobalStyles: builder.GlobalStyles{
				FontFamily:      "Inter",
				PrimaryColor:    "#DC2626",
				SecondaryColor:  "#64748B",
				BackgroundColor: "#FFFFFF",
			},
		},
	}
}

func headerSection(background string) builder.Section {
	return builder.Section{
		ID:              "header-section",
		Name:            "Header",
		Type:            builder.SectionHeader,
		Order:           0,
		Height:          builder.PxDimension(80),
		BackgroundColor: background,
		Padding:         20,
		Components:      []string{},
		Constraints: builder.SectionConstraints{
			MaxComponents: 1,
			AllowedTypes: []builder.ComponentType{
				builder.ComponentText, builder.ComponentButton, builder.ComponentImage,
			},
			Layout: builder.LayoutFlex,
		},
	}
}
